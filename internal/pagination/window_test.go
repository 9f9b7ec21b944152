package pagination

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func render(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    string
	}{
		{name: "no pages", current: 1, total: 0, want: ""},
		{name: "single page", current: 1, total: 1, want: "1"},
		{name: "small verbatim", current: 3, total: 5, want: "1 2 3 4 5"},
		{name: "seven verbatim", current: 7, total: 7, want: "1 2 3 4 5 6 7"},
		{name: "start of long", current: 1, total: 20, want: "1 2 3 4 5 … 20"},
		{name: "third page", current: 3, total: 20, want: "1 2 3 4 5 … 20"},
		{name: "fourth page", current: 4, total: 20, want: "1 … 3 4 5 … 20"},
		{name: "middle", current: 10, total: 20, want: "1 … 9 10 11 … 20"},
		{name: "near end", current: 18, total: 20, want: "1 … 16 17 18 19 20"},
		{name: "last page", current: 20, total: 20, want: "1 … 16 17 18 19 20"},
		{name: "eight pages start", current: 1, total: 8, want: "1 2 3 4 5 … 8"},
		{name: "eight pages middle", current: 4, total: 8, want: "1 … 3 4 5 … 8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(Window(tt.current, tt.total)))
		})
	}
}

func TestWindow_Bounded(t *testing.T) {
	for _, total := range []int{1, 7, 8, 9, 10, 50, 1000, 1_000_000} {
		for _, current := range []int{1, 2, 3, 4, total / 2, total - 3, total - 2, total - 1, total} {
			if current < 1 || current > total {
				continue
			}
			tokens := Window(current, total)
			assert.LessOrEqual(t, len(tokens), MaxTokens, "current=%d total=%d", current, total)
			assert.Equal(t, Token{Page: 1}, tokens[0])
			assert.Equal(t, Token{Page: total}, tokens[len(tokens)-1])

			// page numbers strictly increase and the current page is visible
			last := 0
			seen := false
			for _, tok := range tokens {
				if tok.Ellipsis {
					continue
				}
				assert.Greater(t, tok.Page, last)
				last = tok.Page
				seen = seen || tok.Page == current
			}
			assert.True(t, seen, "current=%d total=%d", current, total)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		in   core.Pagination
		want string
	}{
		{name: "first page", in: core.Pagination{Page: 1, PageSize: 10, Total: 95, TotalPages: 10}, want: "Showing 1 to 10 of 95 items"},
		{name: "last partial page", in: core.Pagination{Page: 10, PageSize: 10, Total: 95, TotalPages: 10}, want: "Showing 91 to 95 of 95 items"},
		{name: "empty", in: core.Pagination{Page: 1, PageSize: 10}, want: "Showing 0 to 0 of 0 items"},
		{name: "beyond end", in: core.Pagination{Page: 12, PageSize: 10, Total: 95, TotalPages: 10}, want: "Showing 95 to 95 of 95 items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.in).String())
		})
	}
}

func TestPrevNext(t *testing.T) {
	p := core.Pagination{Page: 1, PageSize: 10, Total: 25, TotalPages: 3}
	assert.False(t, HasPrev(p))
	assert.True(t, HasNext(p))

	p.Page = 3
	assert.True(t, HasPrev(p))
	assert.False(t, HasNext(p))
}
