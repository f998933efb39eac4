package raster

import (
	"context"
	"image"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// FitzBackend renders with MuPDF through go-fitz (requires cgo).
type FitzBackend struct {
	logger *slog.Logger
}

func NewFitzBackend(logger *slog.Logger) *FitzBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &FitzBackend{logger: logger.With("backend", "fitz")}
}

func (b *FitzBackend) Name() string { return "fitz" }

func (b *FitzBackend) Open(ctx context.Context, path string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("document opened", "path", path, "pages", doc.NumPage())
	return &fitzSession{doc: doc}, nil
}

type fitzSession struct {
	doc *fitz.Document
}

func (s *fitzSession) NumPages() int { return s.doc.NumPage() }

func (s *fitzSession) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := s.doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *fitzSession) Close() error { return s.doc.Close() }
