package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumPages(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{13, 10, 2},
		{30, 10, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumPages(tt.total, tt.perPage), "NumPages(%d, %d)", tt.total, tt.perPage)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		total      int
		wantNumber int
		wantOffset int
	}{
		{"absent", "", 13, 1, 0},
		{"first", "1", 13, 1, 0},
		{"second", "2", 13, 2, 10},
		{"beyond last clamps to last", "99", 13, 2, 10},
		{"zero clamps to first", "0", 13, 1, 0},
		{"negative clamps to first", "-3", 13, 1, 0},
		{"non-numeric is first", "last", 13, 1, 0},
		{"whitespace tolerated", " 2 ", 13, 2, 10},
		{"empty collection", "5", 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.raw, tt.total, 10)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, 10, p.Limit)
		})
	}
}

// For every collection size M and page size N: ceil(M/N) pages, the last
// holding M mod N items (or N when evenly divisible).
func TestPageOf_PageSizes(t *testing.T) {
	for perPage := 1; perPage <= 7; perPage++ {
		for total := 1; total <= 30; total++ {
			all := make([]int, total)
			for i := range all {
				all[i] = i
			}

			wantPages := (total + perPage - 1) / perPage
			wantLast := total % perPage
			if wantLast == 0 {
				wantLast = perPage
			}

			last := pageOf(all, "1000", perPage)
			if last.NumPages != wantPages {
				t.Fatalf("M=%d N=%d: NumPages = %d, want %d", total, perPage, last.NumPages, wantPages)
			}
			if last.Number != wantPages {
				t.Fatalf("M=%d N=%d: clamped Number = %d, want %d", total, perPage, last.Number, wantPages)
			}
			if len(last.Items) != wantLast {
				t.Fatalf("M=%d N=%d: last page len = %d, want %d", total, perPage, len(last.Items), wantLast)
			}
			if last.EndIndex != total {
				t.Fatalf("M=%d N=%d: EndIndex = %d, want %d", total, perPage, last.EndIndex, total)
			}
		}
	}
}

func TestNewPage_Navigation(t *testing.T) {
	all := make([]string, 25)

	first := pageOf(all, "1", 10)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrevious)
	assert.Equal(t, 2, first.NextPageNumber)
	assert.Equal(t, 0, first.PreviousPageNumber)
	assert.Equal(t, 1, first.StartIndex)
	assert.Equal(t, 10, first.EndIndex)

	middle := pageOf(all, "2", 10)
	assert.True(t, middle.HasNext)
	assert.True(t, middle.HasPrevious)
	assert.Equal(t, 11, middle.StartIndex)

	last := pageOf(all, "3", 10)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrevious)
	assert.Len(t, last.Items, 5)
	assert.Equal(t, 25, last.Count)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage[string](nil, Resolve("", 0, 10), 0)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.False(t, page.HasNext)
	assert.Equal(t, 0, page.StartIndex)
}

// pageOf pages an in-memory slice the way the repositories page a query:
// resolve the window against the total, then cut it out.
func pageOf[T any](all []T, raw string, perPage int) Page[T] {
	p := Resolve(raw, len(all), perPage)
	start := min(p.Offset, len(all))
	end := min(start+p.Limit, len(all))
	return NewPage(all[start:end], p, len(all))
}
