package core

// SortDirection is the direction of the active sort.
type SortDirection string

// Sort directions.
const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool { return d == Asc || d == Desc }

// SortSpec is the single active sort.
type SortSpec struct {
	Field     string
	Direction SortDirection
}

// PageRequest is the URL-persisted half of pagination.
type PageRequest struct {
	Page     int
	PageSize int
}

// Pagination is pagination metadata for a result page.
// TotalPages is ceil(Total/PageSize); Page is echoed back unclamped.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Default view state values.
const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	DefaultSortField = "name"
	DefaultSortOrder = Asc
	DefaultTab       = "all"
)

// PageSizes are the allowed page sizes.
var PageSizes = []int{10, 20, 50, 100}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Tabs are the status shortcut tabs, in display order.
var Tabs = []string{DefaultTab, string(StatusActive), string(StatusArchived), string(StatusDraft)}

// ViewState is the complete, URL-persistable description of what is being looked at.
type ViewState struct {
	Filters FilterSet
	Search  string
	Sort    SortSpec
	Page    PageRequest
	Tab     string
}

// DefaultViewState returns the state used when the URL carries nothing.
func DefaultViewState() ViewState {
	return ViewState{
		Filters: FilterSet{},
		Sort:    SortSpec{Field: DefaultSortField, Direction: DefaultSortOrder},
		Page:    PageRequest{Page: DefaultPage, PageSize: DefaultPageSize},
		Tab:     DefaultTab,
	}
}

// Clone returns a copy that shares no mutable state with v.
func (v ViewState) Clone() ViewState {
	out := v
	out.Filters = v.Filters.Clone()
	return out
}

// EffectiveFilters returns the filters sent to the data source: a tab other
// than "all" replaces any status filter with that single status.
func (v ViewState) EffectiveFilters() FilterSet {
	fs := v.Filters.Normalize()
	if v.Tab != "" && v.Tab != DefaultTab {
		fs["status"] = MultiSelect{v.Tab}
	}
	return fs
}

// QueryRequest is the input to the query pipeline.
type QueryRequest struct {
	Filters  FilterSet
	Search   string
	Sort     SortSpec
	Page     int
	PageSize int
}

// Request builds the QueryRequest for this view state.
func (v ViewState) Request() QueryRequest {
	return QueryRequest{
		Filters:  v.EffectiveFilters(),
		Search:   v.Search,
		Sort:     v.Sort,
		Page:     v.Page.Page,
		PageSize: v.Page.PageSize,
	}
}

// Page is one page of query results.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}
