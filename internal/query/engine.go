// Package query implements the filter → sort → paginate pipeline that turns a
// record snapshot and a query request into one page of results.
//
// The pipeline is a pure function: it never mutates its input and keeps no state.
// Stages run in a fixed order (search, schema filters, stable sort, slice), and
// each stage narrows the working set produced by the previous one.
//
// Precondition: numeric and date filter values are already validated. The URL
// codec and core.ParseFilter only ever produce well-formed variants.
package query

import (
	"strings"

	"github.com/leapstack-labs/leapgrid/pkg/core"
	"golang.org/x/text/language"
)

// DefaultSearchFields are the text fields the search term is matched against.
var DefaultSearchFields = []string{"name", "description", "category"}

// Options configures the pipeline.
type Options struct {
	// SearchFields are matched case-insensitively against the search term.
	SearchFields []string
	// Filters is the ordered filter schema; keys outside it are ignored.
	Filters core.FilterSchema
	// Language drives locale-aware string collation when sorting.
	Language language.Tag
}

// DefaultOptions returns the options for Product records.
func DefaultOptions() Options {
	return Options{
		SearchFields: DefaultSearchFields,
		Filters:      core.ProductFilters,
		Language:     language.English,
	}
}

// Run executes the full pipeline with DefaultOptions.
func Run[T core.Record](items []T, req core.QueryRequest) core.Page[T] {
	return RunWith(items, req, DefaultOptions())
}

// RunWith executes search, filters, sort and pagination in that order.
func RunWith[T core.Record](items []T, req core.QueryRequest, opts Options) core.Page[T] {
	filtered := Filter(items, req, opts)
	SortStable(filtered, req.Sort, opts.Language)
	return Paginate(filtered, req.Page, req.PageSize)
}

// Filter returns the records matching the search term and every active filter,
// in their original relative order. The input slice is not modified.
func Filter[T core.Record](items []T, req core.QueryRequest, opts Options) []T {
	term := strings.ToLower(strings.TrimSpace(req.Search))
	fs := req.Filters.Normalize()

	out := make([]T, 0, len(items))
	for _, it := range items {
		if term != "" && !matchesSearch(it, term, opts.SearchFields) {
			continue
		}
		if !matchesFilters(it, fs, opts.Filters) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Matches reports whether a single record passes the search and filter stages.
func Matches(rec core.Record, req core.QueryRequest, opts Options) bool {
	term := strings.ToLower(strings.TrimSpace(req.Search))
	if term != "" && !matchesSearch(rec, term, opts.SearchFields) {
		return false
	}
	return matchesFilters(rec, req.Filters.Normalize(), opts.Filters)
}

func matchesSearch(rec core.Record, term string, fields []string) bool {
	for _, name := range fields {
		v, ok := rec.Field(name)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(v.String()), term) {
			return true
		}
	}
	return false
}

func matchesFilters(rec core.Record, fs core.FilterSet, schema core.FilterSchema) bool {
	for _, spec := range schema {
		f, ok := fs[spec.Key]
		if !ok {
			continue
		}
		if !Predicate(f)(rec, spec.Field) {
			return false
		}
	}
	return true
}
