package core

import "context"

// FetchRequest is what a view asks its data source for.
type FetchRequest struct {
	Page          int
	PageSize      int
	Filters       FilterSet
	SortField     string
	SortDirection SortDirection
	Search        string
}

// FetchResult is a page of data plus pagination metadata.
type FetchResult[T any] struct {
	Data       []T
	Pagination Pagination
}

// DataSource is the possibly slow, possibly failing boundary the browse store
// queries on every view state change.
type DataSource[T any] interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResult[T], error)
}

// DataSourceFunc adapts a function to DataSource.
type DataSourceFunc[T any] func(ctx context.Context, req FetchRequest) (FetchResult[T], error)

// Fetch implements DataSource.
func (f DataSourceFunc[T]) Fetch(ctx context.Context, req FetchRequest) (FetchResult[T], error) {
	return f(ctx, req)
}

// FetchRequestFor converts a QueryRequest to the data source's parameter shape.
func FetchRequestFor(q QueryRequest) FetchRequest {
	return FetchRequest{
		Page:          q.Page,
		PageSize:      q.PageSize,
		Filters:       q.Filters,
		SortField:     q.Sort.Field,
		SortDirection: q.Sort.Direction,
		Search:        q.Search,
	}
}

// QueryRequest converts a FetchRequest back to the query pipeline's input.
func (r FetchRequest) QueryRequest() QueryRequest {
	return QueryRequest{
		Filters:  r.Filters,
		Search:   r.Search,
		Sort:     SortSpec{Field: r.SortField, Direction: r.SortDirection},
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}
