// Package pipeline runs a whole conversion of one document: extract the
// selected pages, save each one, and optionally write a thumbnail beside it.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// Request describes one conversion.
type Request struct {
	Source        string
	OutputDir     string
	Pages         raster.PageSelector
	DPI           int
	Encoding      constants.Encoding
	Quality       int // JPEG only; 0 = encoder default
	Interpolation raster.Interpolation

	// Thumbnail, when set, writes a second image per page. With ThumbnailFit
	// the page is fitted inside the box; otherwise it is resized to exactly
	// that size.
	Thumbnail    *raster.ResizeSpec
	ThumbnailFit bool
}

// Result lists what a successful Run wrote.
type Result struct {
	Pages      []raster.OutputArtifact
	Thumbnails []raster.OutputArtifact
	Bytes      int64
	Duration   time.Duration
}

// Converter coordinates rasterize -> (thumbnail) -> save.
type Converter struct {
	rasterizer *raster.Rasterizer
	logger     *slog.Logger
}

func NewConverter(r *raster.Rasterizer, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{rasterizer: r, logger: logger.With("component", "converter")}
}

// Run converts req.Source. It is all-or-nothing: outputs are staged under
// temporary names and only replace files in OutputDir once every page has
// been rendered and saved. On failure the directory is left as it was.
func (c *Converter) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	logger := common.LoggerWithRequest(ctx, c.logger)

	if err := validate(req); err != nil {
		return Result{}, err
	}
	if st, err := os.Stat(req.OutputDir); err != nil || !st.IsDir() {
		if err == nil {
			err = fs.ErrInvalid
		}
		return Result{}, common.WriteError(fmt.Sprintf("output dir %q", req.OutputDir), err)
	}

	stream, err := c.rasterizer.ExtractPages(ctx, req.Source, req.Pages, req.DPI)
	if err != nil {
		logger.Error("extract failed", "source", req.Source, "error", err)
		return Result{}, err
	}
	defer stream.Close()

	stage := newStaging(uuid.NewString()[:8], logger)
	var res Result
	pages := newArtifactSet()
	thumbs := newArtifactSet()

	base := strings.TrimSuffix(filepath.Base(req.Source), filepath.Ext(req.Source))
	opts := raster.SaveOptions{Quality: req.Quality}
	for stream.Next(ctx) {
		page := stream.Page()

		dest := filepath.Join(req.OutputDir, fmt.Sprintf("%s_p%d.%s", base, page.Index, req.Encoding.Ext()))
		art, err := raster.SaveWith(page, stage.path(dest), req.Encoding, opts)
		if err != nil {
			stage.discard()
			logger.Error("save page failed", "page", page.Index, "dest", dest, "error", err)
			return Result{}, err
		}
		art.Path = dest
		pages.put(art)

		if req.Thumbnail != nil {
			thumb, err := c.thumbnail(page, req)
			if err != nil {
				stage.discard()
				return Result{}, err
			}
			tdest := filepath.Join(req.OutputDir, fmt.Sprintf("%s_p%d_thumb.%s", base, page.Index, req.Encoding.Ext()))
			tart, err := raster.SaveWith(thumb, stage.path(tdest), req.Encoding, opts)
			if err != nil {
				stage.discard()
				logger.Error("save thumbnail failed", "page", page.Index, "dest", tdest, "error", err)
				return Result{}, err
			}
			tart.Path = tdest
			thumbs.put(tart)
		}
	}
	if err := stream.Err(); err != nil {
		stage.discard()
		logger.Error("render failed", "source", req.Source, "error", err)
		return Result{}, err
	}
	if err := stage.commit(); err != nil {
		logger.Error("commit failed", "source", req.Source, "error", err)
		return Result{}, common.WriteError(fmt.Sprintf("write outputs to %q", req.OutputDir), err)
	}

	res.Pages = pages.list
	res.Thumbnails = thumbs.list
	res.Bytes = pages.bytes() + thumbs.bytes()
	res.Duration = time.Since(start)
	logger.Info("conversion complete",
		"source", req.Source,
		"pages", len(res.Pages),
		"thumbnails", len(res.Thumbnails),
		"bytes", humanize.Bytes(uint64(res.Bytes)),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (c *Converter) thumbnail(page raster.PageImage, req Request) (raster.PageImage, error) {
	if req.ThumbnailFit {
		return raster.Thumbnail(page, req.Thumbnail.Width, req.Thumbnail.Height, req.Interpolation)
	}
	return raster.ResizeWith(page, *req.Thumbnail, req.Interpolation)
}

func validate(req Request) error {
	v := common.NewValidator().
		Field("source", req.Source, common.Required).
		Field("output_dir", req.OutputDir, common.Required).
		Field("dpi", req.DPI, common.Positive).
		Field("encoding", string(req.Encoding), common.OneOf(constants.EncodingNames()...))
	if req.Quality != 0 {
		v.Field("quality", req.Quality, common.Range(1, 100))
	}
	if req.Thumbnail != nil {
		v.Field("thumbnail.width", req.Thumbnail.Width, common.Positive).
			Field("thumbnail.height", req.Thumbnail.Height, common.Positive)
	}
	return v.Error()
}

// artifactSet keeps one artifact per path, in first-write order. A selector
// that repeats a page rewrites the same file, so the later artifact wins.
type artifactSet struct {
	list  []raster.OutputArtifact
	index map[string]int
}

func newArtifactSet() *artifactSet {
	return &artifactSet{index: map[string]int{}}
}

func (s *artifactSet) put(a raster.OutputArtifact) {
	if i, ok := s.index[a.Path]; ok {
		s.list[i] = a
		return
	}
	s.index[a.Path] = len(s.list)
	s.list = append(s.list, a)
}

func (s *artifactSet) bytes() int64 {
	var n int64
	for _, a := range s.list {
		n += a.Size
	}
	return n
}
