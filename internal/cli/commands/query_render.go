package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/derive"
	"github.com/leapstack-labs/leapgrid/internal/pagination"
	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// pxPerCell converts column widths, kept in pixels, to terminal cells.
const pxPerCell = 8

// pageColumn describes one output column.
type pageColumn struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Width int    `json:"width"`

	sortField string
}

// pageResult is one rendered page of the catalog.
type pageResult struct {
	Query      string           `json:"query"`
	URL        string           `json:"url"`
	Summary    string           `json:"summary"`
	Pagination core.Pagination  `json:"pagination"`
	Window     []string         `json:"window"`
	Columns    []pageColumn     `json:"columns"`
	Rows       []map[string]any `json:"rows"`
	Selected   []string         `json:"selected,omitempty"`

	ids   []string
	cells [][]string
}

// buildPageResult syncs the workspace and renders its current page. Derived
// columns are evaluated for the whole page in parallel; a row whose
// expression fails gets an empty cell.
func buildPageResult(ctx context.Context, ws *workspace.Workspace, specs []table.Spec, logger *slog.Logger) (*pageResult, error) {
	snap := ws.Sync()
	rows := snap.Data

	derived, err := derive.Derived(specs, core.ProductFields)
	if err != nil {
		return nil, err
	}
	values := make(map[string][]core.Value, len(derived))
	for id, expr := range derived {
		vals, err := derive.EvalRows(ctx, expr, rows)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			logger.Debug("derived column failed", slog.String("column", id), slog.Any("error", err))
		}
		values[id] = vals
	}

	cols := ws.Table.Columns()
	res := &pageResult{
		Query:      snap.Query,
		URL:        productsURL(snap.Query),
		Summary:    pagination.Summarize(snap.Pagination).String(),
		Pagination: snap.Pagination,
		Window:     []string{},
		Columns:    make([]pageColumn, len(cols)),
		Rows:       make([]map[string]any, len(rows)),
		ids:        make([]string, len(rows)),
		cells:      make([][]string, len(rows)),
	}
	for _, tok := range pagination.Window(snap.Pagination.Page, snap.Pagination.TotalPages) {
		res.Window = append(res.Window, tok.String())
	}
	for j, col := range cols {
		res.Columns[j] = pageColumn{ID: col.ID, Title: col.Title(), Width: ws.Table.Width(col.ID)}
		if col.Sortable {
			res.Columns[j].sortField = col.SortField()
		}
	}
	for i, row := range rows {
		res.ids[i] = row.RecordID()
		res.Rows[i] = make(map[string]any, len(cols))
		res.cells[i] = make([]string, len(cols))
		for j, col := range cols {
			if vals, ok := values[col.ID]; ok {
				res.Rows[i][col.ID] = jsonValue(vals[i])
				res.cells[i][j] = vals[i].String()
				continue
			}
			res.Rows[i][col.ID] = jsonValue(col.Value(row))
			res.cells[i][j] = col.Render(row)
		}
		if ws.Table.IsSelected(row.RecordID()) {
			res.Selected = append(res.Selected, row.RecordID())
		}
	}
	return res, nil
}

func jsonValue(v core.Value) any {
	switch v.Kind {
	case core.KindString:
		return v.Str
	case core.KindNumber:
		return v.Num
	case core.KindList:
		return v.List
	case core.KindDate:
		return v.Date.Format(core.DateLayout)
	default:
		return nil
	}
}

// cellWidth is the number of terminal cells a column of px pixels gets.
func cellWidth(px int) int {
	return max(px/pxPerCell, 4)
}

func (res *pageResult) isSelected(id string) bool {
	return slices.Contains(res.Selected, id)
}

// newPageTable builds the go-pretty table for a page. Cells are truncated to
// their column width; selected rows are marked in the first column.
func newPageTable(res *pageResult, sort core.SortSpec, markSelection bool) prettytable.Writer {
	t := prettytable.NewWriter()

	header := prettytable.Row{}
	if markSelection {
		header = append(header, " ")
	}
	for _, col := range res.Columns {
		title := col.Title
		if col.sortField != "" && sort.Field == col.sortField {
			title += sortArrow(sort.Direction)
		}
		header = append(header, title)
	}
	t.AppendHeader(header)

	for i, cells := range res.cells {
		row := prettytable.Row{}
		if markSelection {
			mark := " "
			if res.isSelected(res.ids[i]) {
				mark = "*"
			}
			row = append(row, mark)
		}
		for j, cell := range cells {
			row = append(row, output.Truncate(cell, cellWidth(res.Columns[j].Width)))
		}
		t.AppendRow(row)
	}
	return t
}

func sortArrow(d core.SortDirection) string {
	if d == core.Desc {
		return " ↓"
	}
	return " ↑"
}

func renderPageTable(r *output.Renderer, res *pageResult) error {
	styles := r.Styles()
	if len(res.cells) == 0 {
		r.Println("No results found.")
	} else {
		t := newPageTable(res, core.SortSpec{}, false)
		t.SetOutputMirror(r.Writer())
		t.SetStyle(prettytable.StyleLight)
		t.Render()
	}
	r.Println(res.Summary)
	if len(res.Window) > 0 {
		r.Println(styles.Muted.Render("Pages: " + strings.Join(res.Window, " ")))
	}
	r.Println(styles.Muted.Render("URL:   " + res.URL))
	return nil
}

func renderPageMarkdown(r *output.Renderer, res *pageResult) error {
	r.Println(output.FormatHeader(1, "Products"))
	r.Println("")
	if len(res.cells) == 0 {
		r.Println("No results found.")
	} else {
		r.Println(newPageTable(res, core.SortSpec{}, false).RenderMarkdown())
	}
	r.Println("")
	r.Println(output.FormatKeyValue("Summary", res.Summary))
	r.Println(output.FormatKeyValue("Pages", strings.Join(res.Window, " ")))
	r.Println(output.FormatKeyValue("URL", "`"+res.URL+"`"))
	return nil
}

func renderPageCSV(w io.Writer, res *pageResult) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col.Title
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(res.cells); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
