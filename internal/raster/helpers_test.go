package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend renders blank pages of a fixed size in points, like a letter
// sized PDF would.
type fakeBackend struct {
	pages    int
	widthPt  float64
	heightPt float64
	failAt   int // page index whose Render fails; -1 for none
	openErr  error

	opened   int
	closed   int
	rendered []int
}

func newFakeBackend(pages int) *fakeBackend {
	return &fakeBackend{pages: pages, widthPt: 612, heightPt: 792, failAt: -1}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Open(ctx context.Context, path string) (Session, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened++
	return &fakeSession{b: b}, nil
}

type fakeSession struct {
	b *fakeBackend
}

func (s *fakeSession) NumPages() int { return s.b.pages }

func (s *fakeSession) Render(ctx context.Context, index, dpi int) (image.Image, error) {
	if index == s.b.failAt {
		return nil, errors.New("boom")
	}
	s.b.rendered = append(s.b.rendered, index)
	w := int(math.Ceil(s.b.widthPt * float64(dpi) / 72))
	h := int(math.Ceil(s.b.heightPt * float64(dpi) / 72))
	return solidImage(w, h, color.RGBA{R: uint8(index * 40), G: 128, B: 200, A: 255}), nil
}

func (s *fakeSession) Close() error {
	s.b.closed++
	return nil
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// touch creates a placeholder source file; fake backends never read it.
func touch(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o644))
	return p
}

// writeTestPDF writes a valid PDF with n pages of w x h points, each
// carrying a filled rectangle.
func writeTestPDF(t *testing.T, path string, n int, w, h float64) {
	t.Helper()

	var buf bytes.Buffer
	offsets := []int{0} // object 0 is the free-list head
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("0.%d g 36 36 %g %g re f", i+1, w/2, h/2)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> /Contents %d 0 R >>", w, h, 4+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
