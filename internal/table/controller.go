// Package table holds the interactive state layered over one rendered page of
// records: row selection, column widths, the active resize drag and sort
// toggling.
//
// A Controller owns all of that state. Callers change it only through the
// controller's methods; nothing it returns aliases its internals.
package table

import (
	"fmt"
	"maps"
	"sync"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// DragSession is an in-progress column resize. LastX is the pointer position
// of the previous move event; each move adds the delta from LastX, not from
// StartX.
type DragSession struct {
	ColumnID string
	StartX   int
	LastX    int
}

// Option configures a Controller.
type Option[T core.Record] func(*Controller[T])

// WithOnSelect registers a callback invoked with the selected rows after every
// selection change.
func WithOnSelect[T core.Record](fn func([]T)) Option[T] {
	return func(c *Controller[T]) { c.onSelect = fn }
}

// Controller is the table state machine for one mounted table.
type Controller[T core.Record] struct {
	mu sync.Mutex

	columns   []Column[T]
	widths    map[string]int
	rows      []T
	datasetID string
	selected  map[string]bool
	drag      *DragSession

	onSelect func([]T)
}

// New creates a controller for columns.
func New[T core.Record](columns []Column[T], opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{selected: map[string]bool{}}
	for _, opt := range opts {
		opt(c)
	}
	c.setColumnsLocked(columns)
	return c
}

// SetColumns replaces the column set. Widths go back to their defaults and the
// selection is cleared.
func (c *Controller[T]) SetColumns(columns []Column[T]) {
	c.mu.Lock()
	c.setColumnsLocked(columns)
	notify := c.clearLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller[T]) setColumnsLocked(columns []Column[T]) {
	c.columns = append([]Column[T](nil), columns...)
	c.resetWidthsLocked()
	c.drag = nil
}

func (c *Controller[T]) resetWidthsLocked() {
	c.widths = make(map[string]int, len(c.columns))
	for _, col := range c.columns {
		c.widths[col.ID] = col.initialWidth()
	}
}

// Columns returns the column set in display order.
func (c *Controller[T]) Columns() []Column[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Column[T](nil), c.columns...)
}

// Column looks up a column by id.
func (c *Controller[T]) Column(id string) (Column[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.columnLocked(id)
}

func (c *Controller[T]) columnLocked(id string) (Column[T], bool) {
	for _, col := range c.columns {
		if col.ID == id {
			return col, true
		}
	}
	return Column[T]{}, false
}

// SetRows installs the current page. The selection is pruned to ids on the
// new page, so it never carries across pages. A different datasetID resets
// both the selection and the column widths.
func (c *Controller[T]) SetRows(rows []T, datasetID string) {
	c.mu.Lock()
	c.rows = append([]T(nil), rows...)

	changed := false
	if datasetID != c.datasetID {
		c.datasetID = datasetID
		c.resetWidthsLocked()
		c.drag = nil
		changed = len(c.selected) > 0
		clear(c.selected)
	}

	onPage := make(map[string]bool, len(rows))
	for _, r := range rows {
		onPage[r.RecordID()] = true
	}
	for id := range c.selected {
		if !onPage[id] {
			delete(c.selected, id)
			changed = true
		}
	}
	notify := func() {}
	if changed {
		notify = c.notifierLocked()
	}
	c.mu.Unlock()
	notify()
}

// Rows returns the current page.
func (c *Controller[T]) Rows() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.rows...)
}

// DatasetID identifies the data the current rows came from.
func (c *Controller[T]) DatasetID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.datasetID
}

// =============================================================================
// Selection
// =============================================================================

// ToggleRow flips the selection of one row on the current page. It reports
// false when id is not on the page.
func (c *Controller[T]) ToggleRow(id string) bool {
	c.mu.Lock()
	if !c.onPageLocked(id) {
		c.mu.Unlock()
		return false
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
	notify := c.notifierLocked()
	c.mu.Unlock()
	notify()
	return true
}

// ToggleAll selects every row on the page unless all are already selected,
// in which case it clears the selection.
func (c *Controller[T]) ToggleAll() {
	c.mu.Lock()
	if c.allSelectedLocked() {
		clear(c.selected)
	} else {
		for _, r := range c.rows {
			c.selected[r.RecordID()] = true
		}
	}
	notify := c.notifierLocked()
	c.mu.Unlock()
	notify()
}

// ClearSelection deselects every row.
func (c *Controller[T]) ClearSelection() {
	c.mu.Lock()
	notify := c.clearLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller[T]) clearLocked() func() {
	if len(c.selected) == 0 {
		return func() {}
	}
	clear(c.selected)
	return c.notifierLocked()
}

// IsSelected reports whether id is selected.
func (c *Controller[T]) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected[id]
}

// AllSelected reports whether the page is non-empty and every row is selected.
func (c *Controller[T]) AllSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allSelectedLocked()
}

// SomeSelected reports a partial selection: at least one row but not all.
func (c *Controller[T]) SomeSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected) > 0 && !c.allSelectedLocked()
}

// SelectedCount is the number of selected rows.
func (c *Controller[T]) SelectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected)
}

// Selected returns the selected rows in page order.
func (c *Controller[T]) Selected() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller[T]) selectedLocked() []T {
	out := make([]T, 0, len(c.selected))
	for _, r := range c.rows {
		if c.selected[r.RecordID()] {
			out = append(out, r)
		}
	}
	return out
}

func (c *Controller[T]) allSelectedLocked() bool {
	if len(c.rows) == 0 {
		return false
	}
	for _, r := range c.rows {
		if !c.selected[r.RecordID()] {
			return false
		}
	}
	return true
}

func (c *Controller[T]) onPageLocked(id string) bool {
	for _, r := range c.rows {
		if r.RecordID() == id {
			return true
		}
	}
	return false
}

// notifierLocked snapshots the selection; the returned func runs the
// callback and must be called after the lock is released.
func (c *Controller[T]) notifierLocked() func() {
	if c.onSelect == nil {
		return func() {}
	}
	fn, rows := c.onSelect, c.selectedLocked()
	return func() { fn(rows) }
}

// =============================================================================
// Sorting
// =============================================================================

// ToggleSort returns the sort that results from activating columnID's header.
// The active column flips direction; any other sortable column becomes the
// sort field, ascending. ok is false for unknown or unsortable columns.
func (c *Controller[T]) ToggleSort(columnID string, current core.SortSpec) (next core.SortSpec, ok bool) {
	col, found := c.Column(columnID)
	if !found || !col.Sortable {
		return current, false
	}
	field := col.SortField()
	if current.Field == field {
		return core.SortSpec{Field: field, Direction: current.Direction.Flip()}, true
	}
	return core.SortSpec{Field: field, Direction: core.Asc}, true
}

// =============================================================================
// Column widths
// =============================================================================

// Width returns the current width of a column, or 0 when unknown.
func (c *Controller[T]) Width(columnID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.widths[columnID]
}

// Widths returns a copy of every column width.
func (c *Controller[T]) Widths() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.widths)
}

// BeginResize starts a drag on columnID's resize handle at pointer x.
// Starting a new drag replaces any active one.
func (c *Controller[T]) BeginResize(columnID string, x int) (*DragSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.columnLocked(columnID); !ok {
		return nil, fmt.Errorf("unknown column %q", columnID)
	}
	c.drag = &DragSession{ColumnID: columnID, StartX: x, LastX: x}
	return c.drag, nil
}

// ResizeMove applies one pointer move to the active drag: the delta from the
// last recorded position is added to the width, the result is clamped, and
// LastX advances to x. Moves on a session that is no longer active are
// ignored. It returns the column's width after the move.
func (c *Controller[T]) ResizeMove(s *DragSession, x int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil || s != c.drag {
		if s == nil {
			return 0
		}
		return c.widths[s.ColumnID]
	}
	col, ok := c.columnLocked(s.ColumnID)
	if !ok {
		c.drag = nil
		return 0
	}
	w := col.clamp(c.widths[s.ColumnID] + (x - s.LastX))
	c.widths[s.ColumnID] = w
	s.LastX = x
	return w
}

// EndResize finishes the drag and clears the active marker.
func (c *Controller[T]) EndResize(s *DragSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s != nil && s == c.drag {
		c.drag = nil
	}
}

// Resizing returns the id of the column being resized, if any.
func (c *Controller[T]) Resizing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag == nil {
		return "", false
	}
	return c.drag.ColumnID, true
}

// ActiveDrag returns the active drag session, or nil.
func (c *Controller[T]) ActiveDrag() *DragSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag
}

// SetWidth sets a column width directly, clamped to its limits.
func (c *Controller[T]) SetWidth(columnID string, w int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.columnLocked(columnID)
	if !ok {
		return 0, fmt.Errorf("unknown column %q", columnID)
	}
	c.widths[columnID] = col.clamp(w)
	return c.widths[columnID], nil
}

// =============================================================================
// Rendering
// =============================================================================

// Cell renders one cell of row for columnID.
func (c *Controller[T]) Cell(row T, columnID string) string {
	col, ok := c.Column(columnID)
	if !ok {
		return ""
	}
	return col.Render(row)
}
