package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
	"github.com/joseph-ayodele/pdfraster/internal/raster"
)

type stubBackend struct {
	pages  int
	failAt int
	closed int
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Open(ctx context.Context, path string) (raster.Session, error) {
	return &stubSession{b: b}, nil
}

type stubSession struct{ b *stubBackend }

func (s *stubSession) NumPages() int { return s.b.pages }

func (s *stubSession) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	if index == s.b.failAt {
		return nil, errors.New("render failed")
	}
	img := image.NewRGBA(image.Rect(0, 0, 612*dpi/72, 792*dpi/72))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: uint8(index * 50)}), image.Point{}, draw.Src)
	return img, nil
}

func (s *stubSession) Close() error {
	s.b.closed++
	return nil
}

func setup(t *testing.T, pages, failAt int) (*Converter, *stubBackend, string, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "allnormal.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4\n"), 0o644))
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	b := &stubBackend{pages: pages, failAt: failAt}
	return NewConverter(raster.NewRasterizer(b, nil), nil), b, src, out
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestConverter_Run_PagesAndThumbnails(t *testing.T) {
	c, b, src, out := setup(t, 4, -1)

	res, err := c.Run(context.Background(), Request{
		Source:    src,
		OutputDir: out,
		Pages:     raster.Pages(1, 0, 3),
		DPI:       72,
		Encoding:  constants.JPEG,
		Quality:   80,
		Thumbnail: &raster.ResizeSpec{Width: 200, Height: 150},
	})
	require.NoError(t, err)
	require.Len(t, res.Pages, 3)
	require.Len(t, res.Thumbnails, 3)
	assert.Equal(t, 1, b.closed)

	var order []int
	for _, a := range res.Pages {
		order = append(order, a.Page)
		assert.Equal(t, 612, a.Width)
		assert.Equal(t, 792, a.Height)
	}
	assert.Equal(t, []int{1, 0, 3}, order)
	for _, a := range res.Thumbnails {
		assert.Equal(t, 200, a.Width)
		assert.Equal(t, 150, a.Height)
	}

	want := []string{
		"allnormal_p0.jpg", "allnormal_p0_thumb.jpg",
		"allnormal_p1.jpg", "allnormal_p1_thumb.jpg",
		"allnormal_p3.jpg", "allnormal_p3_thumb.jpg",
	}
	if diff := cmp.Diff(want, listDir(t, out)); diff != "" {
		t.Errorf("output files mismatch (-want +got):\n%s", diff)
	}

	var total int64
	for _, a := range append(res.Pages, res.Thumbnails...) {
		total += a.Size
	}
	assert.Equal(t, total, res.Bytes)
}

func TestConverter_Run_FitThumbnail(t *testing.T) {
	c, _, src, out := setup(t, 1, -1)

	res, err := c.Run(context.Background(), Request{
		Source:       src,
		OutputDir:    out,
		DPI:          72,
		Encoding:     constants.PNG,
		Thumbnail:    &raster.ResizeSpec{Width: 200, Height: 150},
		ThumbnailFit: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Thumbnails, 1)
	assert.Equal(t, 116, res.Thumbnails[0].Width)
	assert.Equal(t, 150, res.Thumbnails[0].Height)
	assert.Equal(t, []string{"allnormal_p0.png", "allnormal_p0_thumb.png"}, listDir(t, out))
}

func TestConverter_Run_AllOrNothing(t *testing.T) {
	c, b, src, out := setup(t, 3, 2)

	_, err := c.Run(context.Background(), Request{
		Source:    src,
		OutputDir: out,
		DPI:       72,
		Encoding:  constants.JPEG,
	})
	require.ErrorIs(t, err, common.ErrDecode)
	assert.Empty(t, listDir(t, out), "pages written before the failure are removed")
	assert.Equal(t, 1, b.closed)
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, name := range listDir(t, dir) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		out[name] = string(data)
	}
	return out
}

func TestConverter_Run_FailedRerunKeepsPreviousOutput(t *testing.T) {
	c, b, src, out := setup(t, 3, -1)
	req := Request{
		Source:    src,
		OutputDir: out,
		DPI:       72,
		Encoding:  constants.JPEG,
		Thumbnail: &raster.ResizeSpec{Width: 20, Height: 20},
	}
	_, err := c.Run(context.Background(), req)
	require.NoError(t, err)
	before := snapshot(t, out)
	require.Len(t, before, 6)

	b.failAt = 2
	_, err = c.Run(context.Background(), req)
	require.ErrorIs(t, err, common.ErrDecode)

	if diff := cmp.Diff(before, snapshot(t, out)); diff != "" {
		t.Errorf("output dir changed by a failed run (-before +after):\n%s", diff)
	}
}

func TestConverter_Run_RepeatedPageReportedOnce(t *testing.T) {
	c, _, src, out := setup(t, 3, -1)

	res, err := c.Run(context.Background(), Request{
		Source:    src,
		OutputDir: out,
		Pages:     raster.Pages(1, 1),
		DPI:       72,
		Encoding:  constants.PNG,
		Thumbnail: &raster.ResizeSpec{Width: 20, Height: 20},
	})
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	require.Len(t, res.Thumbnails, 1)

	var onDisk int64
	for _, name := range listDir(t, out) {
		st, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err)
		onDisk += st.Size()
	}
	assert.Equal(t, onDisk, res.Bytes)
	assert.Equal(t, []string{"allnormal_p1.png", "allnormal_p1_thumb.png"}, listDir(t, out))
}

func TestConverter_Run_InvalidSelectorWritesNothing(t *testing.T) {
	c, _, src, out := setup(t, 3, -1)

	_, err := c.Run(context.Background(), Request{
		Source:    src,
		OutputDir: out,
		Pages:     raster.SinglePage(3),
		DPI:       150,
		Encoding:  constants.JPEG,
	})
	require.ErrorIs(t, err, common.ErrInvalidSelector)
	assert.Empty(t, listDir(t, out))
}

func TestConverter_Run_Validation(t *testing.T) {
	c, _, src, out := setup(t, 1, -1)
	ctx := context.Background()

	tests := map[string]struct {
		req  Request
		want error
	}{
		"zero dpi":          {Request{Source: src, OutputDir: out, Encoding: constants.JPEG}, common.ErrInvalidArgument},
		"bad encoding":      {Request{Source: src, OutputDir: out, DPI: 72, Encoding: "gif"}, common.ErrInvalidArgument},
		"bad quality":       {Request{Source: src, OutputDir: out, DPI: 72, Encoding: constants.JPEG, Quality: -5}, common.ErrInvalidArgument},
		"bad thumbnail":     {Request{Source: src, OutputDir: out, DPI: 72, Encoding: constants.JPEG, Thumbnail: &raster.ResizeSpec{Width: 0, Height: 10}}, common.ErrInvalidArgument},
		"missing source":    {Request{Source: filepath.Join(out, "none.pdf"), OutputDir: out, DPI: 72, Encoding: constants.JPEG}, common.ErrNotFound},
		"missing outputdir": {Request{Source: src, OutputDir: filepath.Join(out, "nope"), DPI: 72, Encoding: constants.JPEG}, common.ErrWrite},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := c.Run(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
