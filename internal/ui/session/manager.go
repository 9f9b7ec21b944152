// Package session maps browser sessions to workspaces.
//
// The session cookie carries only the workspace id and the preferred view
// mode; the view state itself lives in the URL, and the workspace lives in
// memory until it goes idle.
package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// CookieName is the session cookie name.
const CookieName = "leapgrid"

// DefaultIdleTimeout is how long an unused workspace is kept.
const DefaultIdleTimeout = 30 * time.Minute

const (
	keyWorkspace = "workspace"
	keyMode      = "view_mode"
)

// Factory creates a workspace starting at initial.
type Factory func(initial core.ViewState) *workspace.Workspace

// Manager owns every live workspace.
type Manager struct {
	store   sessions.Store
	factory Factory
	idle    time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	items map[string]*workspace.Workspace
}

// NewManager creates a manager. idle <= 0 selects DefaultIdleTimeout.
func NewManager(store sessions.Store, factory Factory, idle time.Duration, logger *slog.Logger) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		store:   store,
		factory: factory,
		idle:    idle,
		logger:  logger,
		items:   map[string]*workspace.Workspace{},
	}
}

// Open returns the request's workspace, creating one starting at initial when
// the session has none (or it was swept). The second result reports whether
// the workspace is new. The session cookie is written on w.
func (m *Manager) Open(w http.ResponseWriter, r *http.Request, initial core.ViewState) (*workspace.Workspace, bool, error) {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but still
		// yields a fresh session.
		m.logger.Debug("discarding unreadable session", slog.Any("error", err))
	}

	id, _ := sess.Values[keyWorkspace].(string)
	if ws := m.get(id); ws != nil {
		ws.Touch()
		return ws, false, nil
	}

	ws := m.factory(initial)
	if mode, ok := sess.Values[keyMode].(string); ok {
		ws.SetMode(mode)
	}
	m.mu.Lock()
	m.items[ws.ID] = ws
	m.mu.Unlock()

	sess.Values[keyWorkspace] = ws.ID
	if err := sess.Save(r, w); err != nil {
		return nil, false, fmt.Errorf("failed to save session: %w", err)
	}
	m.logger.Debug("workspace created", slog.String("workspace", ws.ID))
	return ws, true, nil
}

// Lookup returns the request's workspace without creating one.
func (m *Manager) Lookup(r *http.Request) (*workspace.Workspace, bool) {
	sess, err := m.store.Get(r, CookieName)
	if err != nil {
		return nil, false
	}
	id, _ := sess.Values[keyWorkspace].(string)
	ws := m.get(id)
	if ws == nil {
		return nil, false
	}
	ws.Touch()
	return ws, true
}

// SetMode stores the view mode preference in the session and applies it to
// the request's workspace.
func (m *Manager) SetMode(w http.ResponseWriter, r *http.Request, mode string) error {
	if mode != workspace.ModeTable && mode != workspace.ModeGrid {
		return fmt.Errorf("unknown view mode %q", mode)
	}
	sess, _ := m.store.Get(r, CookieName)
	sess.Values[keyMode] = mode
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if ws, ok := m.Lookup(r); ok {
		ws.SetMode(mode)
	}
	return nil
}

func (m *Manager) get(id string) *workspace.Workspace {
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

// Each calls fn for every live workspace.
func (m *Manager) Each(fn func(*workspace.Workspace)) {
	m.mu.Lock()
	list := make([]*workspace.Workspace, 0, len(m.items))
	for _, ws := range m.items {
		list = append(list, ws)
	}
	m.mu.Unlock()

	for _, ws := range list {
		fn(ws)
	}
}

// Len returns the number of live workspaces.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// IDs returns the live workspace ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Sweep closes and forgets workspaces idle for longer than the timeout. It
// returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	var stale []*workspace.Workspace
	for id, ws := range m.items {
		if ws.IdleFor() > m.idle {
			stale = append(stale, ws)
			delete(m.items, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range stale {
		ws.Close()
		m.logger.Debug("workspace swept", slog.String("workspace", ws.ID))
	}
	return len(stale)
}

// Close closes every workspace.
func (m *Manager) Close() {
	m.mu.Lock()
	items := m.items
	m.items = map[string]*workspace.Workspace{}
	m.mu.Unlock()
	for _, ws := range items {
		ws.Close()
	}
}
