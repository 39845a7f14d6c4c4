// Package pagination slices ordered result sets into fixed-size pages.
//
// Page requests fail soft: a missing or non-numeric page number means the
// first page, and out-of-range numbers clamp to the first or last page.
package pagination

import (
	"strconv"
	"strings"
)

// Params is the resolved window for one page.
type Params struct {
	Number   int // 1-based page number
	NumPages int
	PerPage  int
	Offset   int
	Limit    int
}

// NumPages is ceil(total/perPage), with a minimum of one page so that an
// empty collection still renders an (empty) first page.
func NumPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Resolve turns the raw "page" query value into a window over total items.
func Resolve(raw string, total, perPage int) Params {
	if perPage <= 0 {
		perPage = 1
	}
	numPages := NumPages(total, perPage)

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil, number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Params{
		Number:   number,
		NumPages: numPages,
		PerPage:  perPage,
		Offset:   (number - 1) * perPage,
		Limit:    perPage,
	}
}

// Page is one page of items plus the navigation data a template needs.
type Page[T any] struct {
	Items              []T  `json:"items"`
	Number             int  `json:"number"`
	NumPages           int  `json:"numPages"`
	Count              int  `json:"count"`
	HasNext            bool `json:"hasNext"`
	HasPrevious        bool `json:"hasPrevious"`
	NextPageNumber     int  `json:"nextPageNumber,omitempty"`
	PreviousPageNumber int  `json:"previousPageNumber,omitempty"`
	// StartIndex and EndIndex are the 1-based positions of the first and
	// last item on the page, or 0 when the page is empty.
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// NewPage wraps items fetched for p.
func NewPage[T any](items []T, p Params, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	page := Page[T]{
		Items:       items,
		Number:      p.Number,
		NumPages:    p.NumPages,
		Count:       total,
		HasNext:     p.Number < p.NumPages,
		HasPrevious: p.Number > 1,
	}
	if page.HasNext {
		page.NextPageNumber = p.Number + 1
	}
	if page.HasPrevious {
		page.PreviousPageNumber = p.Number - 1
	}
	if len(items) > 0 {
		page.StartIndex = p.Offset + 1
		page.EndIndex = p.Offset + len(items)
	}
	return page
}
