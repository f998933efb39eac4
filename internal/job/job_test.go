package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

func testConfig() *common.Config {
	return &common.Config{
		Raster: common.RasterConfig{Backend: common.BackendFitz, DPI: 200},
		Output: common.OutputConfig{
			Encoding:        "jpeg",
			JPEGQuality:     85,
			ThumbnailWidth:  200,
			ThumbnailHeight: 150,
			Interpolation:   "bilinear",
		},
	}
}

func TestParse_Defaults(t *testing.T) {
	req, err := Parse([]byte(`{"source": "/in/doc.pdf", "output_dir": "/out"}`), testConfig())
	require.NoError(t, err)

	assert.Equal(t, "/in/doc.pdf", req.Source)
	assert.Equal(t, "/out", req.OutputDir)
	assert.True(t, req.Pages.IsAll())
	assert.Equal(t, 200, req.DPI)
	assert.Equal(t, constants.JPEG, req.Encoding)
	assert.Equal(t, 85, req.Quality)
	assert.Equal(t, raster.BiLinear, req.Interpolation)
	assert.Nil(t, req.Thumbnail)
}

func TestParse_PagesForms(t *testing.T) {
	tests := map[string]struct {
		pages string
		want  string
	}{
		"string list": {`"1,0,3"`, "1,0,3"},
		"string all":  {`"ALL"`, "ALL"},
		"array":       {`[2, 0]`, "2,0"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data := []byte(`{"source": "a.pdf", "output_dir": "out", "pages": ` + tt.pages + `}`)
			req, err := Parse(data, testConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Pages.String())
		})
	}
}

func TestParse_FullJob(t *testing.T) {
	data := []byte(`{
		"source": "a.pdf",
		"output_dir": "out",
		"dpi": 500,
		"encoding": "png",
		"interpolation": "lanczos3",
		"thumbnail": {"width": 200, "height": 150, "fit": true}
	}`)
	req, err := Parse(data, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 500, req.DPI)
	assert.Equal(t, constants.PNG, req.Encoding)
	assert.Zero(t, req.Quality, "quality default applies to jpeg only")
	assert.Equal(t, raster.Lanczos3, req.Interpolation)
	require.NotNil(t, req.Thumbnail)
	assert.Equal(t, raster.ResizeSpec{Width: 200, Height: 150}, *req.Thumbnail)
	assert.True(t, req.ThumbnailFit)
}

func TestParse_InterpolationAlias(t *testing.T) {
	req, err := Parse([]byte(`{"source": "a.pdf", "output_dir": "out", "interpolation": "lanczos"}`), testConfig())
	require.NoError(t, err)
	assert.Equal(t, raster.Lanczos3, req.Interpolation)

	_, err = Parse([]byte(`{"source": "a.pdf", "output_dir": "out", "interpolation": "cubic"}`), testConfig())
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]struct {
		data string
		want error
	}{
		"not json":          {`{"source":`, common.ErrDecode},
		"missing source":    {`{"output_dir": "out"}`, common.ErrInvalidArgument},
		"unknown field":     {`{"source": "a.pdf", "output_dir": "out", "color": true}`, common.ErrInvalidArgument},
		"zero dpi":          {`{"source": "a.pdf", "output_dir": "out", "dpi": 0}`, common.ErrInvalidArgument},
		"bad encoding":      {`{"source": "a.pdf", "output_dir": "out", "encoding": "gif"}`, common.ErrInvalidArgument},
		"quality too high":  {`{"source": "a.pdf", "output_dir": "out", "quality": 101}`, common.ErrInvalidArgument},
		"negative page":     {`{"source": "a.pdf", "output_dir": "out", "pages": [-1]}`, common.ErrInvalidArgument},
		"bad page string":   {`{"source": "a.pdf", "output_dir": "out", "pages": "1,x"}`, common.ErrInvalidSelector},
		"thumbnail no size": {`{"source": "a.pdf", "output_dir": "out", "thumbnail": {"fit": true}}`, common.ErrInvalidArgument},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), testConfig())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source": "docs/a.pdf", "output_dir": "/abs/out", "encoding": "jpg"}`), 0o644))

	req, err := Load(path, testConfig())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "docs", "a.pdf"), req.Source)
	assert.Equal(t, "/abs/out", req.OutputDir)
	assert.Equal(t, constants.JPEG, req.Encoding)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), testConfig())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestBuildJobJSONSchema_Compiles(t *testing.T) {
	s, err := jobSchema()
	require.NoError(t, err)
	require.NotNil(t, s)
}
