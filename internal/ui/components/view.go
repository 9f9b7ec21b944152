package components

import (
	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Header is one column header.
type Header struct {
	ID       string
	Title    string
	Width    int
	Sortable bool
	// Sort is "asc" or "desc" on the active sort column, empty elsewhere.
	Sort     string
	Resizing bool
}

// Cell is one rendered table cell.
type Cell struct {
	ColumnID string
	Text     string
	Width    int
}

// Row is one table row.
type Row struct {
	ID       string
	Selected bool
	Cells    []Cell
	Product  core.Product
}

// PageLink is one entry of the page window.
type PageLink struct {
	Label    string
	Page     int
	Current  bool
	Ellipsis bool
}

// Chip is one active-filter chip.
type Chip struct {
	Key   string
	Label string
}

// Tab is one status tab.
type Tab struct {
	Name   string
	Label  string
	Active bool
}

// Option is one checkbox or radio choice.
type Option struct {
	Value   string
	Checked bool
}

// Filters is the state of the filter panel inputs.
type Filters struct {
	Search     string
	PriceMin   string
	PriceMax   string
	Rating     string
	DateFrom   string
	DateTo     string
	InStock    bool
	Statuses   []Option
	Categories []Option
	Tags       []Option
}

// Signals are the client-side values bound to the filter panel inputs.
type Signals struct {
	Search   string `json:"search"`
	PriceMin string `json:"priceMin"`
	PriceMax string `json:"priceMax"`
	Rating   string `json:"rating"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// ProductsView is everything the products page renders.
type ProductsView struct {
	Title   string
	IsDev   bool
	Query   string
	Mode    string
	Loading bool

	Headers []Header
	Rows    []Row

	SelectedCount int
	AllSelected   bool
	SomeSelected  bool

	Summary   string
	Links     []PageLink
	HasPrev   bool
	HasNext   bool
	Page      int
	PageSize  int
	PageSizes []int

	Tabs    []Tab
	Chips   []Chip
	Filters Filters
	Notices []browse.Notice
}

// Empty reports whether the loaded page has no rows.
func (v ProductsView) Empty() bool { return !v.Loading && len(v.Rows) == 0 }

// Signals returns the client-side signal values matching the panel state.
func (v ProductsView) Signals() Signals {
	return Signals{
		Search:   v.Filters.Search,
		PriceMin: v.Filters.PriceMin,
		PriceMax: v.Filters.PriceMax,
		Rating:   v.Filters.Rating,
		DateFrom: v.Filters.DateFrom,
		DateTo:   v.Filters.DateTo,
	}
}
