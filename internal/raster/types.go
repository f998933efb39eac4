// Package raster turns PDF pages into raster images, resizes them and writes
// them to disk.
//
// A Rasterizer opens a document through a Backend (MuPDF in-process or the
// poppler command-line tools), resolves a PageSelector against the page
// count and hands back a PageStream that renders one page per Next call.
// Every document session is released when the stream is exhausted, fails or
// is closed.
package raster

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdfraster/constants"
)

// PageImage is the raster of a single page of a single source document.
type PageImage struct {
	Source string // path of the document (or artifact) it came from
	Index  int    // 0-based page index within Source
	DPI    int    // rendering resolution; 0 when not rendered from a PDF
	Image  image.Image
}

// Width returns the pixel width, 0 for an empty image.
func (p PageImage) Width() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dx()
}

// Height returns the pixel height, 0 for an empty image.
func (p PageImage) Height() int {
	if p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

func (p PageImage) valid() bool {
	return p.Width() > 0 && p.Height() > 0
}

// ResizeSpec is a target size in pixels.
type ResizeSpec struct {
	Width  int
	Height int
}

// OutputArtifact describes a file written by Save.
type OutputArtifact struct {
	ID        uuid.UUID
	Path      string
	Encoding  constants.Encoding
	Size      int64
	Width     int
	Height    int
	Source    string
	Page      int
	WrittenAt time.Time
}
