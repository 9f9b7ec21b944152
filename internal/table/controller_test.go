package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/internal/testutil"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func productColumns() []Column[core.Product] {
	return []Column[core.Product]{
		{ID: "name", Header: "Product", Sortable: true, Width: 250},
		{ID: "category", Sortable: true},
		{ID: "price", Sortable: true, MinWidth: 120, MaxWidth: 300},
		{ID: "stock", Width: 50},
		{
			ID:       "value",
			Accessor: func(p core.Product) core.Value { return core.NumberValue(p.Price * float64(p.Stock)) },
		},
		{
			ID:   "status",
			Cell: func(p core.Product) string { return "[" + string(p.Status) + "]" },
		},
	}
}

func ids(rows []core.Product) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

// =============================================================================
// Selection
// =============================================================================

func TestSelection_ToggleRow(t *testing.T) {
	var notified [][]string
	c := New(productColumns(), WithOnSelect(func(rows []core.Product) {
		notified = append(notified, ids(rows))
	}))
	products := testutil.Products(5)
	c.SetRows(products, "ds1")

	require.True(t, c.ToggleRow("PROD-0002"))
	require.True(t, c.ToggleRow("PROD-0004"))
	assert.True(t, c.SomeSelected())
	assert.False(t, c.AllSelected())
	assert.Equal(t, []string{"PROD-0002", "PROD-0004"}, ids(c.Selected()))

	require.True(t, c.ToggleRow("PROD-0002"))
	assert.Equal(t, []string{"PROD-0004"}, ids(c.Selected()))

	assert.False(t, c.ToggleRow("PROD-9999"), "ids off the page are rejected")

	assert.Equal(t, [][]string{
		{"PROD-0002"},
		{"PROD-0002", "PROD-0004"},
		{"PROD-0004"},
	}, notified)
}

func TestSelection_ToggleAll(t *testing.T) {
	c := New(productColumns())
	c.SetRows(testutil.Products(4), "ds1")

	c.ToggleRow("PROD-0001")
	c.ToggleAll()
	assert.True(t, c.AllSelected())
	assert.False(t, c.SomeSelected())
	assert.Equal(t, 4, c.SelectedCount())

	c.ToggleAll()
	assert.False(t, c.AllSelected())
	assert.Zero(t, c.SelectedCount())
}

func TestSelection_EmptyPageIsNeverAllSelected(t *testing.T) {
	c := New(productColumns())
	c.SetRows(nil, "ds1")

	assert.False(t, c.AllSelected())
	c.ToggleAll()
	assert.Zero(t, c.SelectedCount())
}

func TestSelection_DoesNotCrossPages(t *testing.T) {
	var last []core.Product
	c := New(productColumns(), WithOnSelect(func(rows []core.Product) { last = rows }))
	all := testutil.Products(20)

	c.SetRows(all[:10], "ds1")
	c.ToggleAll()
	require.Len(t, last, 10)

	c.SetRows(all[10:], "ds1")
	assert.Zero(t, c.SelectedCount())
	assert.False(t, c.AllSelected())
	assert.Empty(t, last, "pruning notifies with the empty selection")
}

func TestSelection_KeepsRowsStillOnPage(t *testing.T) {
	c := New(productColumns())
	all := testutil.Products(10)
	c.SetRows(all[:5], "ds1")
	c.ToggleRow("PROD-0003")
	c.ToggleRow("PROD-0005")

	c.SetRows(all[2:7], "ds1")

	assert.Equal(t, []string{"PROD-0003", "PROD-0005"}, ids(c.Selected()))
}

func TestSelection_ResetOnDatasetOrColumns(t *testing.T) {
	c := New(productColumns())
	rows := testutil.Products(3)
	c.SetRows(rows, "ds1")
	c.ToggleAll()

	c.SetRows(rows, "ds2")
	assert.Zero(t, c.SelectedCount(), "new dataset identity clears selection")

	c.ToggleAll()
	c.SetColumns(productColumns()[:2])
	assert.Zero(t, c.SelectedCount(), "new column set clears selection")
}

// =============================================================================
// Sorting
// =============================================================================

func TestToggleSort(t *testing.T) {
	c := New(productColumns())

	tests := []struct {
		name    string
		column  string
		current core.SortSpec
		want    core.SortSpec
		wantOK  bool
	}{
		{
			name:    "same column flips to desc",
			column:  "name",
			current: core.SortSpec{Field: "name", Direction: core.Asc},
			want:    core.SortSpec{Field: "name", Direction: core.Desc},
			wantOK:  true,
		},
		{
			name:    "same column flips back to asc",
			column:  "name",
			current: core.SortSpec{Field: "name", Direction: core.Desc},
			want:    core.SortSpec{Field: "name", Direction: core.Asc},
			wantOK:  true,
		},
		{
			name:    "new column starts ascending",
			column:  "price",
			current: core.SortSpec{Field: "name", Direction: core.Desc},
			want:    core.SortSpec{Field: "price", Direction: core.Asc},
			wantOK:  true,
		},
		{
			name:    "unsortable column",
			column:  "stock",
			current: core.SortSpec{Field: "name", Direction: core.Asc},
			want:    core.SortSpec{Field: "name", Direction: core.Asc},
			wantOK:  false,
		},
		{
			name:    "unknown column",
			column:  "missing",
			current: core.SortSpec{Field: "name", Direction: core.Asc},
			want:    core.SortSpec{Field: "name", Direction: core.Asc},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.ToggleSort(tt.column, tt.current)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Column widths
// =============================================================================

func TestWidths_Defaults(t *testing.T) {
	c := New(productColumns())

	assert.Equal(t, map[string]int{
		"name":     250,
		"category": DefaultWidth,
		"price":    DefaultWidth,
		"stock":    MinWidth,
		"value":    DefaultWidth,
		"status":   DefaultWidth,
	}, c.Widths())
}

func TestResize_AccumulatesDeltas(t *testing.T) {
	c := New(productColumns())

	s, err := c.BeginResize("category", 400)
	require.NoError(t, err)
	id, active := c.Resizing()
	require.True(t, active)
	assert.Equal(t, "category", id)

	assert.Equal(t, 160, c.ResizeMove(s, 410))
	assert.Equal(t, 185, c.ResizeMove(s, 435))
	assert.Equal(t, 175, c.ResizeMove(s, 425))
	assert.Equal(t, 425, s.LastX)
	assert.Equal(t, 400, s.StartX)

	c.EndResize(s)
	_, active = c.Resizing()
	assert.False(t, active)
	assert.Equal(t, 175, c.Width("category"))

	// moves after the drag ended are ignored
	assert.Equal(t, 175, c.ResizeMove(s, 900))
}

func TestResize_ClampsAndRecovers(t *testing.T) {
	c := New(productColumns())
	s, err := c.BeginResize("category", 500)
	require.NoError(t, err)

	// 150 - 200 clamps to 100, not -50
	assert.Equal(t, MinWidth, c.ResizeMove(s, 300))
	// the next delta is measured from 300, so width grows from the clamped value
	assert.Equal(t, 130, c.ResizeMove(s, 330))
}

func TestResize_ColumnLimits(t *testing.T) {
	c := New(productColumns())
	s, err := c.BeginResize("price", 0)
	require.NoError(t, err)

	assert.Equal(t, 120, c.ResizeMove(s, -100), "column minimum above the global minimum")
	assert.Equal(t, 300, c.ResizeMove(s, 1000), "column maximum")
	c.EndResize(s)
}

func TestResize_UnknownColumn(t *testing.T) {
	c := New(productColumns())
	s, err := c.BeginResize("nope", 10)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestResize_ResetOnDatasetChange(t *testing.T) {
	c := New(productColumns())
	c.SetRows(nil, "ds1")
	_, err := c.SetWidth("name", 400)
	require.NoError(t, err)

	c.SetRows(nil, "ds1")
	assert.Equal(t, 400, c.Width("name"))

	c.SetRows(nil, "ds2")
	assert.Equal(t, 250, c.Width("name"))
}

// =============================================================================
// Rendering
// =============================================================================

func TestCell(t *testing.T) {
	c := New(productColumns())
	p := core.Product{ID: "p1", Name: "Lamp", Category: "Home & Garden", Price: 12.5, Stock: 4, Status: core.StatusDraft}

	assert.Equal(t, "Lamp", c.Cell(p, "name"))
	assert.Equal(t, "12.5", c.Cell(p, "price"))
	assert.Equal(t, "50", c.Cell(p, "value"))
	assert.Equal(t, "[draft]", c.Cell(p, "status"))
	assert.Equal(t, "", c.Cell(p, "missing"))
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "name", want: "Name"},
		{in: "dateAdded", want: "Date Added"},
		{in: "in_stock", want: "In Stock"},
		{in: "unit-price", want: "Unit Price"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Humanize(tt.in))
		})
	}

	assert.Equal(t, "Product", productColumns()[0].Title())
	assert.Equal(t, "Category", productColumns()[1].Title())
}
