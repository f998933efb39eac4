package raster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdfraster/constants"
	"github.com/joseph-ayodele/pdfraster/internal/common"
)

func TestFitzBackend_ThreePageDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.pdf")
	writeTestPDF(t, src, 3, 612, 792)

	r := NewRasterizer(NewFitzBackend(nil), nil)

	n, err := r.PageCount(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pages, err := r.ExtractAll(ctx, src, AllPages(), 150)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i, p.Index)
		assert.InDelta(t, 1275, p.Width(), 1)
		assert.InDelta(t, 1650, p.Height(), 1)
	}

	out := filepath.Join(dir, "out0.jpg")
	art, err := Save(pages[0], out, constants.JPEG)
	require.NoError(t, err)
	_, err = os.Stat(out)
	require.NoError(t, err)

	back, err := OpenImage(art.Path)
	require.NoError(t, err)
	assert.Equal(t, pages[0].Width(), back.Width())
	assert.Equal(t, pages[0].Height(), back.Height())
}

func TestFitzBackend_DimensionsGrowWithResolution(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "single.pdf")
	writeTestPDF(t, src, 1, 300, 200)

	r := NewRasterizer(NewFitzBackend(nil), nil)
	prevW, prevH := 0, 0
	for _, dpi := range []int{36, 72, 150, 300} {
		pages, err := r.ExtractAll(ctx, src, SinglePage(0), dpi)
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Greater(t, pages[0].Width(), prevW, "dpi=%d", dpi)
		assert.Greater(t, pages[0].Height(), prevH, "dpi=%d", dpi)
		prevW, prevH = pages[0].Width(), pages[0].Height()
	}
}

func TestFitzBackend_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	r := NewRasterizer(NewFitzBackend(nil), nil)

	junk := filepath.Join(dir, "junk.pdf")
	require.NoError(t, os.WriteFile(junk, []byte("this is not a pdf"), 0o644))
	// MuPDF either refuses the file or repairs it into an empty document.
	_, err := r.ExtractPages(ctx, junk, SinglePage(0), 72)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDecode) || errors.Is(err, common.ErrInvalidSelector), err.Error())

	src := filepath.Join(dir, "doc.pdf")
	writeTestPDF(t, src, 2, 100, 100)
	_, err = r.ExtractPages(ctx, src, Pages(0, 2), 72)
	assert.ErrorIs(t, err, common.ErrInvalidSelector)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "failed extraction writes nothing")
}

func TestFitzBackend_CancelledOpen(t *testing.T) {
	src := filepath.Join(t.TempDir(), "doc.pdf")
	writeTestPDF(t, src, 1, 100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRasterizer(NewFitzBackend(nil), nil).ExtractPages(ctx, src, AllPages(), 72)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrDecode)
}
