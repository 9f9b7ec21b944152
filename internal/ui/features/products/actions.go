package products

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapgrid/internal/notifier"
	"github.com/leapstack-labs/leapgrid/internal/ui/components"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// =============================================================================
// View state
// =============================================================================

func (h *Handlers) sort(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	column := r.URL.Query().Get("column")
	next, ok := ws.Table.ToggleSort(column, ws.Store.View().Sort)
	if !ok {
		return fmt.Errorf("column %q is not sortable", column)
	}
	ws.Store.SetSort(next)
	return nil
}

func (h *Handlers) search(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	var signals components.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return fmt.Errorf("failed to read signals: %w", err)
	}
	ws.Store.SetSearch(strings.TrimSpace(signals.Search))
	return nil
}

func (h *Handlers) tab(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	ws.Store.SetTab(r.URL.Query().Get("name"))
	return nil
}

func (h *Handlers) mode(w http.ResponseWriter, r *http.Request, _ *workspace.Workspace) error {
	return h.sessions.SetMode(w, r, r.URL.Query().Get("name"))
}

// =============================================================================
// Filters
// =============================================================================

// setFilter applies a single-valued filter input. An empty value, or "all"
// for status, removes the filter; so does switching the in-stock flag off.
func (h *Handlers) setFilter(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	q := r.URL.Query()
	key, value := q.Get("key"), strings.TrimSpace(q.Get("value"))
	switch {
	case key == "":
		return fmt.Errorf("filter key is required")
	case value == "",
		key == "status" && value == core.DefaultTab,
		key == "inStock" && value == "false":
		ws.Store.RemoveFilter(key)
	default:
		ws.Store.SetFilterInput(key, value)
	}
	return nil
}

func (h *Handlers) toggleFilter(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	q := r.URL.Query()
	if q.Get("key") == "" || q.Get("value") == "" {
		return fmt.Errorf("filter key and value are required")
	}
	ws.Store.ToggleFilterValue(q.Get("key"), q.Get("value"))
	return nil
}

// setBound applies one bound of a range input from the bound signals.
func (h *Handlers) setBound(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	var signals components.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return fmt.Errorf("failed to read signals: %w", err)
	}
	q := r.URL.Query()
	key, upper := q.Get("key"), q.Get("bound") == "max"

	var raw string
	switch {
	case key == "price" && !upper:
		raw = signals.PriceMin
	case key == "price":
		raw = signals.PriceMax
	case key == "date" && !upper:
		raw = signals.DateFrom
	case key == "date":
		raw = signals.DateTo
	default:
		return fmt.Errorf("no range input for filter %q", key)
	}
	ws.Store.SetRangeBound(key, upper, raw)
	return nil
}

func (h *Handlers) setRating(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	var signals components.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return fmt.Errorf("failed to read signals: %w", err)
	}
	if strings.TrimSpace(signals.Rating) == "" {
		ws.Store.RemoveFilter("rating")
		return nil
	}
	ws.Store.SetFilterInput("rating", signals.Rating)
	return nil
}

func (h *Handlers) removeFilter(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	ws.Store.RemoveFilter(r.URL.Query().Get("key"))
	return nil
}

func (h *Handlers) clearFilters(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Store.ClearFilters()
	return nil
}

// =============================================================================
// Pagination
// =============================================================================

func (h *Handlers) page(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		return fmt.Errorf("invalid page: %w", err)
	}
	ws.Store.SetPage(n)
	return nil
}

func (h *Handlers) nextPage(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Store.NextPage()
	return nil
}

func (h *Handlers) prevPage(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Store.PrevPage()
	return nil
}

func (h *Handlers) pageSize(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		return fmt.Errorf("invalid page size: %w", err)
	}
	ws.Store.SetPageSize(n)
	return nil
}

// =============================================================================
// Selection
// =============================================================================

func (h *Handlers) selectRow(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	id := r.URL.Query().Get("id")
	if !ws.Table.ToggleRow(id) {
		return fmt.Errorf("row %q is not on the current page", id)
	}
	return nil
}

func (h *Handlers) selectAll(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Table.ToggleAll()
	return nil
}

func (h *Handlers) clearSelection(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Table.ClearSelection()
	return nil
}

// =============================================================================
// Column resizing
// =============================================================================

func (h *Handlers) resizeStart(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		return fmt.Errorf("invalid pointer position: %w", err)
	}
	if _, err := ws.Table.BeginResize(q.Get("column"), x); err != nil {
		return err
	}
	ws.Notifier.Broadcast(notifier.TopicLayout)
	return nil
}

func (h *Handlers) resizeMove(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	x, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		return fmt.Errorf("invalid pointer position: %w", err)
	}
	drag := ws.Table.ActiveDrag()
	if drag == nil {
		return nil
	}
	ws.Table.ResizeMove(drag, x)
	ws.Notifier.Broadcast(notifier.TopicLayout)
	return nil
}

func (h *Handlers) resizeEnd(_ http.ResponseWriter, _ *http.Request, ws *workspace.Workspace) error {
	ws.Table.EndResize(ws.Table.ActiveDrag())
	ws.Notifier.Broadcast(notifier.TopicLayout)
	return nil
}

// =============================================================================
// Notices
// =============================================================================

func (h *Handlers) dismissNotice(_ http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error {
	ws.Store.Dismiss(r.URL.Query().Get("id"))
	return nil
}
