package products

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/notifier"
	"github.com/leapstack-labs/leapgrid/internal/ui/components"
	"github.com/leapstack-labs/leapgrid/internal/ui/session"
	"github.com/leapstack-labs/leapgrid/internal/viewstate"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// DefaultFirstPaint bounds how long the page handler waits for data before
// rendering the loading state instead.
const DefaultFirstPaint = 2 * time.Second

// FacetSource supplies the filter choices of the current catalog.
type FacetSource interface {
	Facets() catalog.Facets
}

// Config holds the dependencies of the products feature.
type Config struct {
	Sessions   *session.Manager
	Facets     FacetSource
	IsDev      bool
	FirstPaint time.Duration
	// DefaultPageSize applies when the URL has no pageSize. Zero keeps
	// core.DefaultPageSize.
	DefaultPageSize int
	Logger          *slog.Logger
}

// Handlers provides HTTP handlers for the products feature.
type Handlers struct {
	sessions        *session.Manager
	facets          FacetSource
	isDev           bool
	firstPaint      time.Duration
	defaultPageSize int
	logger          *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg Config) *Handlers {
	firstPaint := cfg.FirstPaint
	if firstPaint <= 0 {
		firstPaint = DefaultFirstPaint
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		sessions:        cfg.Sessions,
		facets:          cfg.Facets,
		isDev:           cfg.IsDev,
		firstPaint:      firstPaint,
		defaultPageSize: cfg.DefaultPageSize,
		logger:          logger,
	}
}

// initialView decodes the view state of a page request.
func (h *Handlers) initialView(q url.Values) core.ViewState {
	v := viewstate.Decode(q)
	if !q.Has(viewstate.KeyPageSize) && core.ValidPageSize(h.defaultPageSize) {
		v.Page.PageSize = h.defaultPageSize
	}
	return v
}

// ProductsPage renders the products page for the view state in the URL.
// The URL wins over whatever the session's workspace was showing.
func (h *Handlers) ProductsPage(w http.ResponseWriter, r *http.Request) {
	initial := h.initialView(r.URL.Query())

	ws, created, err := h.sessions.Open(w, r, initial)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var pending *browse.Pending
	if !created && viewstate.EncodeQuery(initial) != ws.Store.Query() {
		pending = ws.Store.Replace(initial)
	} else {
		pending = ws.Load()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.firstPaint)
	defer cancel()
	if err := pending.Wait(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.logger.Debug("first paint without data", slog.Any("error", err))
	}

	view := BuildView(ws, h.facetList(), h.isDev)
	if err := components.ProductsPage(view).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ProductsUpdates is the long-lived SSE endpoint for the products page. It
// patches #app whenever the workspace changes and keeps the address bar in
// step with the view state. It does not send initial state; ProductsPage
// renders that.
func (h *Handlers) ProductsUpdates(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.sessions.Lookup(r)
	sse := datastar.NewSSE(w, r)
	if !ok {
		// The workspace was swept or the server restarted.
		_ = sse.ExecuteScript("window.location.reload()")
		return
	}

	updates := ws.Notifier.Subscribe(notifier.TopicAll)
	defer ws.Notifier.Unsubscribe(updates)

	lastQuery := ws.Store.Query()
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates.C():
			updates.Take()
			ws.Touch()
			view := BuildView(ws, h.facetList(), h.isDev)
			if err := sse.PatchElementTempl(components.ProductsApp(view)); err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if view.Query != lastQuery {
				lastQuery = view.Query
				_ = sse.ExecuteScript(ReplaceStateScript(view.Query))
			}
		}
	}
}

// ReplaceStateScript rewrites the address bar without adding a history entry.
func ReplaceStateScript(query string) string {
	return fmt.Sprintf("window.history.replaceState(null, '', %s)", strconv.Quote("/products?"+query))
}

func (h *Handlers) facetList() catalog.Facets {
	if h.facets == nil {
		return catalog.Facets{}
	}
	return h.facets.Facets()
}

// action adapts a workspace mutation to a datastar action endpoint. Results
// reach the browser through ProductsUpdates, so the action response carries
// only errors.
func (h *Handlers) action(fn func(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := h.sessions.Lookup(r)
		if !ok {
			http.Error(w, "session expired, reload the page", http.StatusGone)
			return
		}
		// Read signals and cookies BEFORE creating SSE (SSE starts the response)
		err := fn(w, r, ws)
		sse := datastar.NewSSE(w, r)
		if err != nil {
			h.logger.Debug("action failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			_ = sse.ConsoleError(err)
		}
	}
}

// NotFound renders the 404 page.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = components.NotFound("Page not found").Render(r.Context(), w)
}
