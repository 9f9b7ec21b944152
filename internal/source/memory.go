// Package source provides core.DataSource implementations: an in-memory
// snapshot queried through the query pipeline behind a fixed simulated
// latency, and a circuit breaker wrapper for sources that can fail.
package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapgrid/internal/query"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// DefaultLatency is the simulated fetch delay.
const DefaultLatency = 300 * time.Millisecond

// MemoryConfig configures a Memory source.
type MemoryConfig struct {
	// Latency is applied before every fetch. Zero disables it; a negative
	// value selects DefaultLatency.
	Latency time.Duration
	Options query.Options
	Logger  *slog.Logger
}

// Memory serves fetches from an in-memory record snapshot.
type Memory[T core.Record] struct {
	mu      sync.RWMutex
	items   []T
	version string

	latency time.Duration
	opts    query.Options
	logger  *slog.Logger
}

// NewMemory creates a source over items. The slice is not copied; callers must
// not modify it afterwards.
func NewMemory[T core.Record](items []T, cfg MemoryConfig) *Memory[T] {
	latency := cfg.Latency
	if latency < 0 {
		latency = DefaultLatency
	}
	opts := cfg.Options
	if opts.Filters == nil && opts.SearchFields == nil {
		opts = query.DefaultOptions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Memory[T]{items: items, latency: latency, opts: opts, logger: logger}
}

// Fetch waits out the simulated latency and runs the query pipeline over the
// current snapshot.
func (m *Memory[T]) Fetch(ctx context.Context, req core.FetchRequest) (core.FetchResult[T], error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return core.FetchResult[T]{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return core.FetchResult[T]{}, err
	}

	m.mu.RLock()
	items := m.items
	m.mu.RUnlock()

	page := query.RunWith(items, req.QueryRequest(), m.opts)
	m.logger.Debug("fetch",
		slog.Int("page", page.Pagination.Page),
		slog.Int("page_size", page.Pagination.PageSize),
		slog.Int("total", page.Pagination.Total),
		slog.String("sort", req.SortField),
		slog.String("search", req.Search))

	return core.FetchResult[T]{Data: page.Items, Pagination: page.Pagination}, nil
}

// Replace swaps the snapshot. In-flight fetches finish against the old one.
func (m *Memory[T]) Replace(items []T, version string) {
	m.mu.Lock()
	m.items = items
	m.version = version
	m.mu.Unlock()
	m.logger.Info("snapshot replaced", slog.Int("records", len(items)), slog.String("version", version))
}

// Len returns the snapshot size.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Version identifies the current snapshot.
func (m *Memory[T]) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Items returns the current snapshot.
func (m *Memory[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items
}
