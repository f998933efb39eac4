package raster

import (
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdfraster/internal/common"
)

// PageSelector chooses which pages of a document to extract. The zero value
// selects all pages.
type PageSelector struct {
	all     bool
	indices []int
}

// AllPages selects every page in document order.
func AllPages() PageSelector { return PageSelector{all: true} }

// SinglePage selects one 0-based page.
func SinglePage(index int) PageSelector { return PageSelector{indices: []int{index}} }

// Pages selects the given 0-based pages in the given order.
func Pages(indices ...int) PageSelector {
	idx := make([]int, len(indices))
	copy(idx, indices)
	return PageSelector{indices: idx}
}

// ParseSelector parses "ALL" (or ""), "N", or "a,b,c".
func ParseSelector(s string) (PageSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllPages(), nil
	}
	parts := strings.Split(s, ",")
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		n, err := strconv.Atoi(p)
		if err != nil {
			return PageSelector{}, common.InvalidSelectorErrorf("bad page index %q in %q", p, s)
		}
		if n < 0 {
			return PageSelector{}, common.InvalidSelectorErrorf("negative page index %d", n)
		}
		indices = append(indices, n)
	}
	return PageSelector{indices: indices}, nil
}

// IsAll reports whether the selector selects every page.
func (s PageSelector) IsAll() bool { return s.all || s.indices == nil }

// Resolve returns the concrete page indices for a document of numPages pages.
func (s PageSelector) Resolve(numPages int) ([]int, error) {
	if s.IsAll() {
		out := make([]int, numPages)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	if len(s.indices) == 0 {
		return nil, common.InvalidSelectorError("no pages selected")
	}
	out := make([]int, len(s.indices))
	for i, idx := range s.indices {
		if idx < 0 || idx >= numPages {
			return nil, common.InvalidSelectorErrorf("page index %d out of range [0,%d)", idx, numPages)
		}
		out[i] = idx
	}
	return out, nil
}

func (s PageSelector) String() string {
	if s.IsAll() {
		return "ALL"
	}
	parts := make([]string, len(s.indices))
	for i, idx := range s.indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}
