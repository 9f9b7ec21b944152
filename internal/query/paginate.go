package query

import "github.com/leapstack-labs/leapgrid/pkg/core"

// Paginate slices one page out of items. The page number is echoed back as
// given: a page outside [1, TotalPages] yields an empty slice, never a clamp.
// A non-positive pageSize falls back to core.DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) core.Page[T] {
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	out := core.Page[T]{
		Items: []T{},
		Pagination: core.Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}

	start := (page - 1) * pageSize
	if page < 1 || start >= total {
		return out
	}
	end := min(start+pageSize, total)
	out.Items = append(out.Items, items[start:end]...)
	return out
}
