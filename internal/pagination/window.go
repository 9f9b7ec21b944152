// Package pagination computes the compact page-number window shown beneath a
// result page and the "showing x to y of z" summary.
package pagination

import (
	"strconv"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// maxVerbatim is the largest page count rendered without ellipses.
const maxVerbatim = 7

// MaxTokens bounds the length of any window: seven numbers plus two ellipses.
const MaxTokens = 9

// PageSizes are the page sizes offered by the page-size selector.
var PageSizes = core.PageSizes

// Token is one entry of a page window: a page number or an ellipsis marker.
type Token struct {
	Page     int
	Ellipsis bool
}

// String renders the token as shown to the user.
func (t Token) String() string {
	if t.Ellipsis {
		return "…"
	}
	return strconv.Itoa(t.Page)
}

// Window returns the page tokens for current out of totalPages.
// The first and last pages are always present and the window never exceeds
// MaxTokens entries. A totalPages below 1 yields no tokens.
func Window(current, totalPages int) []Token {
	if totalPages < 1 {
		return nil
	}
	if totalPages <= maxVerbatim {
		out := make([]Token, 0, totalPages)
		for p := 1; p <= totalPages; p++ {
			out = append(out, Token{Page: p})
		}
		return out
	}

	start := max(current-1, 2)
	end := min(current+1, totalPages-1)
	if current <= 3 {
		end = 5
	}
	if current >= totalPages-2 {
		start = totalPages - 4
	}

	out := make([]Token, 0, MaxTokens)
	out = append(out, Token{Page: 1})
	if start > 2 {
		out = append(out, Token{Ellipsis: true})
	}
	for p := start; p <= end; p++ {
		out = append(out, Token{Page: p})
	}
	if end < totalPages-1 {
		out = append(out, Token{Ellipsis: true})
	}
	out = append(out, Token{Page: totalPages})
	return out
}

// Summary is the "Showing From to To of Total" line.
type Summary struct {
	From  int
	To    int
	Total int
}

// Summarize derives the visible item range from pagination metadata.
func Summarize(p core.Pagination) Summary {
	if p.Total == 0 || p.PageSize <= 0 || p.Page < 1 {
		return Summary{Total: p.Total}
	}
	from := min((p.Page-1)*p.PageSize+1, p.Total)
	to := min(p.Page*p.PageSize, p.Total)
	return Summary{From: from, To: to, Total: p.Total}
}

// String formats the summary the way the pagination bar shows it.
func (s Summary) String() string {
	return "Showing " + strconv.Itoa(s.From) + " to " + strconv.Itoa(s.To) + " of " + strconv.Itoa(s.Total) + " items"
}

// HasPrev reports whether a previous page exists.
func HasPrev(p core.Pagination) bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func HasNext(p core.Pagination) bool { return p.Page < p.TotalPages }
