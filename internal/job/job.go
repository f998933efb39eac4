// Package job loads JSON job files that describe a single conversion.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/pipeline"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

// File is the on-disk shape of a job.
type File struct {
	Source        string          `json:"source"`
	OutputDir     string          `json:"output_dir"`
	Pages         json.RawMessage `json:"pages,omitempty"`
	DPI           int             `json:"dpi,omitempty"`
	Encoding      string          `json:"encoding,omitempty"`
	Quality       int             `json:"quality,omitempty"`
	Interpolation string          `json:"interpolation,omitempty"`
	Thumbnail     *Thumbnail      `json:"thumbnail,omitempty"`
}

type Thumbnail struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Fit    bool `json:"fit,omitempty"`
}

// Load reads, validates and converts the job file at path. Relative source
// and output paths are resolved against the job file's directory; unset
// fields take their values from cfg.
func Load(path string, cfg *common.Config) (pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pipeline.Request{}, common.NotFoundError(fmt.Sprintf("job file %q", path), err)
		}
		return pipeline.Request{}, common.DecodeError(fmt.Sprintf("read job file %q", path), err)
	}
	req, err := Parse(data, cfg)
	if err != nil {
		return pipeline.Request{}, err
	}
	dir := filepath.Dir(path)
	if !filepath.IsAbs(req.Source) {
		req.Source = filepath.Join(dir, req.Source)
	}
	if !filepath.IsAbs(req.OutputDir) {
		req.OutputDir = filepath.Join(dir, req.OutputDir)
	}
	return req, nil
}

// Parse validates data against the job schema and builds a Request.
func Parse(data []byte, cfg *common.Config) (pipeline.Request, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return pipeline.Request{}, common.DecodeError("job file is not valid JSON", err)
	}
	schema, err := jobSchema()
	if err != nil {
		return pipeline.Request{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return pipeline.Request{}, common.NewAppError(common.CodeInvalidArgument, "job does not match schema", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return pipeline.Request{}, common.DecodeError("job file", err)
	}
	return f.request(cfg)
}

func (f File) request(cfg *common.Config) (pipeline.Request, error) {
	if cfg == nil {
		cfg = common.LoadConfig()
	}
	sel, err := f.selector()
	if err != nil {
		return pipeline.Request{}, err
	}

	encName := f.Encoding
	if encName == "" {
		encName = cfg.Output.Encoding
	}
	enc, ok := constants.ParseEncoding(encName)
	if !ok {
		return pipeline.Request{}, common.InvalidArgumentErrorf("unsupported encoding %q", encName)
	}

	interpName := f.Interpolation
	if interpName == "" {
		interpName = cfg.Output.Interpolation
	}
	interp, err := raster.ParseInterpolation(interpName)
	if err != nil {
		return pipeline.Request{}, err
	}

	req := pipeline.Request{
		Source:        f.Source,
		OutputDir:     f.OutputDir,
		Pages:         sel,
		DPI:           f.DPI,
		Encoding:      enc,
		Quality:       f.Quality,
		Interpolation: interp,
	}
	if req.DPI == 0 {
		req.DPI = cfg.Raster.DPI
	}
	if req.Quality == 0 && enc == constants.JPEG {
		req.Quality = cfg.Output.JPEGQuality
	}
	if f.Thumbnail != nil {
		req.Thumbnail = &raster.ResizeSpec{Width: f.Thumbnail.Width, Height: f.Thumbnail.Height}
		req.ThumbnailFit = f.Thumbnail.Fit
	}
	return req, nil
}

func (f File) selector() (raster.PageSelector, error) {
	if len(f.Pages) == 0 {
		return raster.AllPages(), nil
	}
	var s string
	if err := json.Unmarshal(f.Pages, &s); err == nil {
		return raster.ParseSelector(s)
	}
	var idx []int
	if err := json.Unmarshal(f.Pages, &idx); err != nil {
		return raster.PageSelector{}, common.InvalidSelectorError("pages must be a string or an array of indices")
	}
	return raster.Pages(idx...), nil
}
