// Package paging turns raw page/size input into bounded offset/limit windows
// and wraps result pages in a uniform envelope. Malformed input never fails a
// request: it degrades to defaults so listing endpoints stay available.
package paging

import (
	"math"
	"strconv"
	"strings"
)

type Limits struct {
	DefaultSize int
	MaxSize     int
}

// Window is a normalized page request. Page is 1-based, Index is 0-based.
type Window struct {
	Page   int
	Index  int
	Size   int
	Offset int
	Limit  int
}

func ToZeroBased(page int) int {
	if page < 1 {
		return 0
	}
	return page - 1
}

func ToOneBased(index int) int {
	switch {
	case index < 0:
		return 1
	case index == math.MaxInt:
		return math.MaxInt
	}
	return index + 1
}

// Normalize parses a 1-based page and a page size. Missing, non-numeric or
// out-of-range values fall back to page 1 and the default size.
func Normalize(page, size string, limits Limits) Window {
	return Clamp(parseInt(page), parseInt(size), limits)
}

// NormalizeIndex is Normalize for callers that pass a 0-based page index.
func NormalizeIndex(index, size string, limits Limits) Window {
	i, ok := parseIntOK(index)
	if !ok {
		return Clamp(1, parseInt(size), limits)
	}
	return Clamp(ToOneBased(i), parseInt(size), limits)
}

func Clamp(page, size int, limits Limits) Window {
	if page < 1 {
		page = 1
	}

	maxSize := limits.MaxSize
	if maxSize < 1 {
		maxSize = 1
	}
	defaultSize := limits.DefaultSize
	if defaultSize < 1 || defaultSize > maxSize {
		defaultSize = maxSize
	}

	switch {
	case size < 1:
		size = defaultSize
	case size > maxSize:
		size = maxSize
	}

	// keeps (page-1)*size from overflowing into a negative offset
	if lastPage := math.MaxInt / size; page > lastPage {
		page = lastPage
	}

	return Window{
		Page:   page,
		Index:  ToZeroBased(page),
		Size:   size,
		Offset: (page - 1) * size,
		Limit:  size,
	}
}

// ClampLimit bounds a top-N style limit, used by pickers that do not page.
func ClampLimit(raw string, limits Limits) int {
	return Clamp(1, parseInt(raw), limits).Limit
}

func parseInt(s string) int {
	n, _ := parseIntOK(s)
	return n
}

func parseIntOK(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
