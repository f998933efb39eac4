package raster

import (
	"context"
	"image"
)

// Backend opens PDF documents for rendering.
type Backend interface {
	Name() string
	// Open starts a decoding session. The caller has already checked that
	// path exists; any error returned here means the file could not be
	// decoded as a PDF.
	Open(ctx context.Context, path string) (Session, error)
}

// Session is an open document. Sessions are used by one goroutine at a time
// and must be closed.
type Session interface {
	NumPages() int
	// Render rasterizes the 0-based page index at dpi dots per inch.
	Render(ctx context.Context, index, dpi int) (image.Image, error)
	Close() error
}
