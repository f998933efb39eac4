package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// PageStream yields rendered pages one at a time. It is finite and cannot be
// restarted; the underlying document session is released once the stream is
// exhausted, fails, or is closed.
//
//	for stream.Next(ctx) {
//		page := stream.Page()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type PageStream struct {
	sess    Session
	source  string
	indices []int
	dpi     int
	pos     int
	cur     PageImage
	err     error
	done    bool
	logger  *slog.Logger
}

// Len returns the number of pages the stream yields in total.
func (s *PageStream) Len() int { return len(s.indices) }

// Indices returns the resolved page indices in yield order.
func (s *PageStream) Indices() []int {
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// Next renders the next page. It returns false when the stream is exhausted
// or an error occurred; check Err afterwards.
func (s *PageStream) Next(ctx context.Context) bool {
	if s.done {
		return false
	}
	if s.pos >= len(s.indices) {
		s.finish(nil)
		return false
	}
	if err := ctx.Err(); err != nil {
		s.finish(err)
		return false
	}

	idx := s.indices[s.pos]
	img, err := s.sess.Render(ctx, idx, s.dpi)
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = errors.New("empty raster")
	}
	if err != nil {
		s.finish(backendError(fmt.Sprintf("render page %d of %q", idx, s.source), err))
		return false
	}
	s.pos++
	s.cur = PageImage{Source: s.source, Index: idx, DPI: s.dpi, Image: img}
	s.logger.Debug("page rendered", "path", s.source, "page", idx, "width", s.cur.Width(), "height", s.cur.Height())
	return true
}

// Page returns the page produced by the last successful Next.
func (s *PageStream) Page() PageImage { return s.cur }

// Err returns the first error encountered, if any.
func (s *PageStream) Err() error { return s.err }

// Close releases the document session. It is safe to call more than once.
func (s *PageStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.cur = PageImage{}
	return s.sess.Close()
}

// Collect drains the stream. On any failure no pages are returned.
func (s *PageStream) Collect(ctx context.Context) ([]PageImage, error) {
	defer s.Close()
	pages := make([]PageImage, 0, s.Len()-s.pos)
	for s.Next(ctx) {
		pages = append(pages, s.Page())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (s *PageStream) finish(err error) {
	if s.err == nil {
		s.err = err
	}
	if cerr := s.Close(); cerr != nil {
		s.logger.Warn("failed to close document", "path", s.source, "error", cerr)
	}
}
