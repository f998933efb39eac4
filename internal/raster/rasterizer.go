package raster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// Rasterizer extracts page images from PDF documents.
type Rasterizer struct {
	backend Backend
	logger  *slog.Logger
}

func NewRasterizer(backend Backend, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{backend: backend, logger: logger.With("component", "rasterizer")}
}

// NewBackend picks the backend named by cfg.Backend.
func NewBackend(cfg common.RasterConfig, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case common.BackendFitz, "":
		return NewFitzBackend(logger), nil
	case common.BackendPdftoppm:
		return NewPopplerBackend(PopplerConfig{
			Pdftoppm:       cfg.Pdftoppm,
			Pdfinfo:        cfg.Pdfinfo,
			ScratchDir:     cfg.ScratchDir,
			CommandTimeout: cfg.CommandTimeout,
		}, logger), nil
	default:
		return nil, common.InvalidArgumentErrorf("unknown raster backend %q", cfg.Backend)
	}
}

// Backend returns the backend in use.
func (r *Rasterizer) Backend() Backend { return r.backend }

// ExtractPages opens sourcePath and returns a stream over the selected pages
// rendered at resolution dpi. Argument, existence, decoding and selector
// errors are reported here, before any page is rendered. The caller must
// Close the stream unless it is drained to the end.
func (r *Rasterizer) ExtractPages(ctx context.Context, sourcePath string, sel PageSelector, resolution int) (*PageStream, error) {
	if err := common.NewValidator().
		Field("source_path", sourcePath, common.Required).
		Field("resolution", resolution, common.Positive).
		Error(); err != nil {
		return nil, err
	}

	sess, err := r.open(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	indices, err := sel.Resolve(sess.NumPages())
	if err != nil {
		r.closeSession(sess, sourcePath)
		return nil, err
	}

	logger := common.LoggerWithRequest(ctx, r.logger)
	logger.Debug("extracting pages",
		"path", sourcePath,
		"selector", sel.String(),
		"pages", len(indices),
		"dpi", resolution,
	)
	return &PageStream{
		sess:    sess,
		source:  sourcePath,
		indices: indices,
		dpi:     resolution,
		logger:  logger,
	}, nil
}

// ExtractAll renders every selected page and returns them in selector
// order. It fails as a whole if any page fails.
func (r *Rasterizer) ExtractAll(ctx context.Context, sourcePath string, sel PageSelector, resolution int) ([]PageImage, error) {
	stream, err := r.ExtractPages(ctx, sourcePath, sel, resolution)
	if err != nil {
		return nil, err
	}
	return stream.Collect(ctx)
}

// PageCount returns the number of pages in sourcePath.
func (r *Rasterizer) PageCount(ctx context.Context, sourcePath string) (int, error) {
	sess, err := r.open(ctx, sourcePath)
	if err != nil {
		return 0, err
	}
	defer r.closeSession(sess, sourcePath)
	return sess.NumPages(), nil
}

func (r *Rasterizer) open(ctx context.Context, path string) (Session, error) {
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, common.NotFoundError(fmt.Sprintf("source %q", path), err)
	case err != nil:
		return nil, common.DecodeError(fmt.Sprintf("cannot read source %q", path), err)
	case st.IsDir():
		return nil, common.DecodeError(fmt.Sprintf("source %q is a directory", path), nil)
	}

	sess, err := r.backend.Open(ctx, path)
	if err != nil {
		r.logger.Error("open document failed", "path", path, "backend", r.backend.Name(), "error", err)
		return nil, backendError(fmt.Sprintf("open %q as pdf", path), err)
	}
	return sess, nil
}

// backendError maps a backend failure onto the error taxonomy. Errors that
// already carry a code pass through, and so does context cancellation; any
// other failure means the document could not be decoded.
func backendError(msg string, err error) error {
	switch {
	case common.CodeOf(err) != "":
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", msg, err)
	default:
		return common.DecodeError(msg, err)
	}
}

func (r *Rasterizer) closeSession(sess Session, path string) {
	if err := sess.Close(); err != nil {
		r.logger.Warn("failed to close document", "path", path, "error", err)
	}
}
