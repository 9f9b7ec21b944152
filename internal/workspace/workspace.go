// Package workspace pairs a browse store with the table controller that sits
// on top of its current page. The web UI keeps one workspace per browser
// session; the terminal browser keeps exactly one.
package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/internal/notifier"
	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// View modes.
const (
	ModeTable = "table"
	ModeGrid  = "grid"
)

// Config configures a Workspace.
type Config struct {
	Source core.DataSource[core.Product]
	// Dataset identifies the records behind Source. A change resets the
	// table's selection and column widths.
	Dataset    func() string
	Columns    []table.Column[core.Product]
	Initial    *core.ViewState
	ClampPages bool
	Logger     *slog.Logger
	// Now is the clock used for idle tracking. Defaults to time.Now.
	Now func() time.Time
}

// Workspace is one browsing session.
type Workspace struct {
	ID       string
	Store    *browse.Store[core.Product]
	Table    *table.Controller[core.Product]
	Notifier *notifier.Notifier

	dataset func() string
	now     func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
	mode     string
}

// New creates a workspace. The store is not loaded until Load is called.
func New(cfg Config) *Workspace {
	n := notifier.New()
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dataset := cfg.Dataset
	if dataset == nil {
		dataset = func() string { return "" }
	}

	ws := &Workspace{
		ID:       uuid.NewString(),
		Notifier: n,
		dataset:  dataset,
		now:      now,
		lastSeen: now(),
		mode:     ModeTable,
	}
	ws.Store = browse.New(browse.Config[core.Product]{
		Source:     cfg.Source,
		Initial:    cfg.Initial,
		ClampPages: cfg.ClampPages,
		Notifier:   n,
		Logger:     cfg.Logger,
	})
	ws.Table = table.New(cfg.Columns, table.WithOnSelect(func([]core.Product) {
		n.Broadcast(notifier.TopicSelection)
	}))
	return ws
}

// Load fetches the current view.
func (w *Workspace) Load() *browse.Pending { return w.Store.Load() }

// Sync installs the store's current page into the table. It returns the
// snapshot it synced from.
func (w *Workspace) Sync() browse.Snapshot[core.Product] {
	snap := w.Store.Snapshot()
	w.Table.SetRows(snap.Data, w.dataset())
	return snap
}

// Reload re-fetches the current view after the underlying records changed.
func (w *Workspace) Reload() *browse.Pending {
	w.Notifier.Broadcast(notifier.TopicCatalog)
	return w.Store.Load()
}

// Touch marks the workspace as used now.
func (w *Workspace) Touch() {
	w.mu.Lock()
	w.lastSeen = w.now()
	w.mu.Unlock()
}

// IdleFor reports how long the workspace has gone unused.
func (w *Workspace) IdleFor() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now().Sub(w.lastSeen)
}

// Mode returns the view mode, ModeTable or ModeGrid.
func (w *Workspace) Mode() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// SetMode switches the view mode. Unknown modes are ignored.
func (w *Workspace) SetMode(mode string) bool {
	if mode != ModeTable && mode != ModeGrid {
		return false
	}
	w.mu.Lock()
	changed := w.mode != mode
	w.mode = mode
	w.mu.Unlock()
	if changed {
		w.Notifier.Broadcast(notifier.TopicLayout)
	}
	return true
}

// Close stops the store.
func (w *Workspace) Close() { w.Store.Close() }
