package products

import (
	"slices"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/pagination"
	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/internal/ui/components"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// PageTitle is the heading of the products page.
const PageTitle = "Products"

var tabLabels = map[string]string{
	core.DefaultTab:             "All Products",
	string(core.StatusActive):   "Active",
	string(core.StatusArchived): "Archived",
	string(core.StatusDraft):    "Draft",
}

// BuildView assembles the render model for ws. It syncs the table with the
// store's current page first, so selection and rows are never out of step.
func BuildView(ws *workspace.Workspace, facets catalog.Facets, isDev bool) components.ProductsView {
	snap := ws.Sync()
	view := snap.View

	v := components.ProductsView{
		Title:     PageTitle,
		IsDev:     isDev,
		Query:     snap.Query,
		Mode:      ws.Mode(),
		Loading:   snap.Loading,
		Page:      snap.Pagination.Page,
		PageSize:  view.Page.PageSize,
		PageSizes: pagination.PageSizes,
		HasPrev:   pagination.HasPrev(snap.Pagination),
		HasNext:   pagination.HasNext(snap.Pagination),
		Summary:   pagination.Summarize(snap.Pagination).String(),
		Notices:   snap.Notices,

		SelectedCount: ws.Table.SelectedCount(),
		AllSelected:   ws.Table.AllSelected(),
		SomeSelected:  ws.Table.SomeSelected(),
	}

	v.Headers, v.Rows = tableView(ws.Table, view.Sort)

	for _, tok := range pagination.Window(snap.Pagination.Page, snap.Pagination.TotalPages) {
		v.Links = append(v.Links, components.PageLink{
			Label:    tok.String(),
			Page:     tok.Page,
			Current:  !tok.Ellipsis && tok.Page == snap.Pagination.Page,
			Ellipsis: tok.Ellipsis,
		})
	}

	for _, name := range core.Tabs {
		v.Tabs = append(v.Tabs, components.Tab{Name: name, Label: tabLabels[name], Active: view.Tab == name})
	}

	fs := view.Filters.Normalize()
	for _, key := range fs.Keys() {
		v.Chips = append(v.Chips, components.Chip{Key: key, Label: key + ": " + fs[key].String()})
	}

	v.Filters = filterPanel(view, facets)
	return v
}

func tableView(c *table.Controller[core.Product], sort core.SortSpec) ([]components.Header, []components.Row) {
	columns := c.Columns()
	widths := c.Widths()
	resizing, _ := c.Resizing()

	headers := make([]components.Header, 0, len(columns))
	for _, col := range columns {
		h := components.Header{
			ID:       col.ID,
			Title:    col.Title(),
			Width:    widths[col.ID],
			Sortable: col.Sortable,
			Resizing: col.ID == resizing,
		}
		if col.Sortable && sort.Field == col.SortField() {
			h.Sort = string(sort.Direction)
		}
		headers = append(headers, h)
	}

	pageRows := c.Rows()
	rows := make([]components.Row, 0, len(pageRows))
	for _, p := range pageRows {
		row := components.Row{
			ID:       p.ID,
			Selected: c.IsSelected(p.ID),
			Product:  p,
			Cells:    make([]components.Cell, 0, len(columns)),
		}
		for _, col := range columns {
			row.Cells = append(row.Cells, components.Cell{
				ColumnID: col.ID,
				Text:     col.Render(p),
				Width:    widths[col.ID],
			})
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func filterPanel(view core.ViewState, facets catalog.Facets) components.Filters {
	fs := view.Filters
	out := components.Filters{
		Search:     view.Search,
		Statuses:   options(facetsOr(facets.Statuses, core.Tabs[1:]), fs["status"]),
		Categories: options(facets.Categories, fs["category"]),
		Tags:       options(facets.Tags, fs["tags"]),
	}
	if r, ok := fs["price"].(core.Range); ok {
		if r.Min != nil {
			out.PriceMin = core.FormatNumber(*r.Min)
		}
		if r.Max != nil {
			out.PriceMax = core.FormatNumber(*r.Max)
		}
	}
	if t, ok := fs["rating"].(core.Threshold); ok {
		out.Rating = core.FormatNumber(float64(t))
	}
	if d, ok := fs["date"].(core.DateRange); ok {
		out.DateFrom, out.DateTo = d.From, d.To
	}
	if f, ok := fs["inStock"].(core.Flag); ok {
		out.InStock = bool(f)
	}
	return out
}

func facetsOr(values, fallback []string) []string {
	if len(values) > 0 {
		return values
	}
	return fallback
}

// options marks the facet values selected by f. Selected values missing from
// the facets are still listed so they can be unchecked.
func options(values []string, f core.Filter) []components.Option {
	selected, _ := f.(core.MultiSelect)
	out := make([]components.Option, 0, len(values))
	for _, v := range values {
		out = append(out, components.Option{Value: v, Checked: selected.Contains(v)})
	}
	for _, v := range selected {
		if !slices.Contains(values, v) {
			out = append(out, components.Option{Value: v, Checked: true})
		}
	}
	return out
}
