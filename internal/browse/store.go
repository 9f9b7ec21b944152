// Package browse owns the view state of one browsing session and keeps the
// displayed page in step with it.
//
// Every transition mutates the view state, re-encodes the URL and dispatches a
// fetch against the data source. Fetches run on their own goroutine and are
// tagged with a monotonically increasing token; a completion is applied only
// when its token is still the latest one issued, so a slow early fetch can
// never overwrite the result of a later one.
package browse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapgrid/internal/notifier"
	"github.com/leapstack-labs/leapgrid/internal/viewstate"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Config configures a Store.
type Config[T core.Record] struct {
	Source core.DataSource[T]
	// Initial is the starting view state, usually decoded from the URL.
	// The zero value selects core.DefaultViewState.
	Initial *core.ViewState
	// Codec encodes the view state to a query string. Defaults to viewstate.Products.
	Codec *viewstate.Codec
	// Schema validates typed filter input. Defaults to core.ProductFilters.
	Schema core.FilterSchema
	// ClampPages re-issues the query at the last page when a result reports
	// fewer pages than the requested page number.
	ClampPages bool
	// Notifier receives change pings. One is created when nil.
	Notifier *notifier.Notifier
	Logger   *slog.Logger
}

// Notice is a dismissible error notification.
type Notice struct {
	ID      string
	Title   string
	Message string
	Detail  string
	At      time.Time
}

// Snapshot is a consistent copy of the store's observable state.
type Snapshot[T any] struct {
	View       core.ViewState
	Query      string
	Data       []T
	Pagination core.Pagination
	Loading    bool
	Notices    []Notice
	// Token is the latest issued fetch token; Applied is the token whose
	// result is currently displayed.
	Token   uint64
	Applied uint64
}

// Store is the single owner of a core.ViewState.
type Store[T core.Record] struct {
	src      core.DataSource[T]
	codec    *viewstate.Codec
	schema   core.FilterSchema
	clamp    bool
	notifier *notifier.Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	view       core.ViewState
	query      string
	data       []T
	pagination core.Pagination
	loading    bool
	notices    []Notice
	seq        uint64
	applied    uint64
	inflight   context.CancelFunc
	closed     bool
}

// New creates a store. It does not fetch until Load or a transition is called.
func New[T core.Record](cfg Config[T]) *Store[T] {
	view := core.DefaultViewState()
	if cfg.Initial != nil {
		view = cfg.Initial.Clone()
		if view.Filters == nil {
			view.Filters = core.FilterSet{}
		}
	}
	codec := cfg.Codec
	if codec == nil {
		codec = viewstate.Products
	}
	schema := cfg.Schema
	if schema == nil {
		schema = core.ProductFilters
	}
	n := cfg.Notifier
	if n == nil {
		n = notifier.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	view = canonical(codec, view)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store[T]{
		src:      cfg.Source,
		codec:    codec,
		schema:   schema,
		clamp:    cfg.ClampPages,
		notifier: n,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		view:     view,
		data:     []T{},
		pagination: core.Pagination{
			Page:     view.Page.Page,
			PageSize: view.Page.PageSize,
		},
	}
	s.query = codec.EncodeQuery(view)
	return s
}

// Notifier returns the notifier the store pings on every change.
func (s *Store[T]) Notifier() *notifier.Notifier { return s.notifier }

// Close abandons in-flight fetches. Later transitions are ignored.
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// =============================================================================
// Reads
// =============================================================================

// View returns a copy of the current view state.
func (s *Store[T]) View() core.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Clone()
}

// Query returns the encoded query string of the current view state.
func (s *Store[T]) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Loading reports whether the latest fetch is still outstanding.
func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns a consistent copy of everything the store exposes.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{
		View:       s.view.Clone(),
		Query:      s.query,
		Data:       append([]T{}, s.data...),
		Pagination: s.pagination,
		Loading:    s.loading,
		Notices:    append([]Notice(nil), s.notices...),
		Token:      s.seq,
		Applied:    s.applied,
	}
}

// Notices returns the undismissed notices, oldest first.
func (s *Store[T]) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
}

// Dismiss removes a notice. It reports whether the notice existed.
func (s *Store[T]) Dismiss(id string) bool {
	s.mu.Lock()
	found := false
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i:i], s.notices[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.notifier.Broadcast(notifier.TopicNotice)
	}
	return found
}

// =============================================================================
// Transitions
// =============================================================================

// Load fetches the page for the current view state without changing it.
func (s *Store[T]) Load() *Pending {
	return s.update(func(*core.ViewState) bool { return true })
}

// Replace installs a whole view state, as when the URL changes underneath
// the store. The page is kept; anything the URL cannot carry is dropped or
// reset to its default.
func (s *Store[T]) Replace(v core.ViewState) *Pending {
	v = canonical(s.codec, v)
	return s.update(func(cur *core.ViewState) bool {
		*cur = v
		return true
	})
}

// ReplaceQuery decodes raw and installs the result.
func (s *Store[T]) ReplaceQuery(raw string) *Pending {
	return s.Replace(s.codec.DecodeQuery(raw))
}

// SetFilters replaces the whole filter set and returns to page 1. Filters the
// URL cannot carry are dropped.
func (s *Store[T]) SetFilters(fs core.FilterSet) *Pending {
	fs = s.codec.AcceptAll(fs)
	return s.update(func(v *core.ViewState) bool {
		v.Filters = fs
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetFilter sets one filter and returns to page 1. An empty filter removes
// the key. Keys the codec owns and filters of the wrong kind for a schema
// key are rejected.
func (s *Store[T]) SetFilter(key string, f core.Filter) *Pending {
	f, ok := s.codec.Accept(key, f)
	if !ok {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		next := v.Filters.Clone()
		next[key] = f
		v.Filters = next.Normalize()
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetFilterInput parses raw user input for a schema filter and applies it.
// Input that fails to parse is ignored and the previous value is kept.
func (s *Store[T]) SetFilterInput(key string, raw ...string) *Pending {
	spec, ok := s.schema.Lookup(key)
	if !ok {
		if key == "" || s.codec.Owns(key) {
			return s.noop()
		}
		kind := core.FilterScalar
		if len(raw) > 1 {
			kind = core.FilterMultiSelect
		}
		spec = core.FilterSpec{Key: key, Kind: kind}
	}
	f, err := core.ParseFilter(spec.Kind, raw...)
	if err != nil {
		s.logger.Debug("ignoring invalid filter input", slog.String("key", key), slog.Any("error", err))
		return s.noop()
	}
	return s.SetFilter(key, f)
}

// SetRangeBound changes one bound of a range filter, keeping the other.
// An empty raw clears the bound; an unparsable one is ignored.
func (s *Store[T]) SetRangeBound(key string, upper bool, raw string) *Pending {
	spec, ok := s.schema.Lookup(key)
	if !ok || (spec.Kind != core.FilterRange && spec.Kind != core.FilterDateRange) {
		return s.noop()
	}
	idx := 0
	if upper {
		idx = 1
	}
	parsed, err := core.ParseFilter(spec.Kind, boundArgs(idx, raw)...)
	if err != nil {
		s.logger.Debug("ignoring invalid bound", slog.String("key", key), slog.Any("error", err))
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		next := v.Filters.Clone()
		merged, ok := s.codec.Accept(key, mergeBound(next[key], parsed, upper))
		if !ok {
			return false
		}
		next[key] = merged
		v.Filters = next.Normalize()
		v.Page.Page = core.DefaultPage
		return true
	})
}

func boundArgs(idx int, raw string) []string {
	args := []string{"", ""}
	args[idx] = raw
	return args
}

func mergeBound(prev, parsed core.Filter, upper bool) core.Filter {
	switch p := parsed.(type) {
	case core.Range:
		cur, _ := prev.(core.Range)
		if upper {
			cur.Max = p.Max
		} else {
			cur.Min = p.Min
		}
		return cur
	case core.DateRange:
		cur, _ := prev.(core.DateRange)
		if upper {
			cur.To = p.To
		} else {
			cur.From = p.From
		}
		return cur
	}
	return parsed
}

// ToggleFilterValue adds or removes one value of a multi-select filter.
// Keys whose schema kind is not a multi-select are ignored.
func (s *Store[T]) ToggleFilterValue(key, value string) *Pending {
	value = strings.TrimSpace(value)
	if key == "" || value == "" || s.codec.Owns(key) {
		return s.noop()
	}
	if spec, ok := s.schema.Lookup(key); ok && spec.Kind != core.FilterMultiSelect {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		cur, _ := v.Filters[key].(core.MultiSelect)
		next := make(core.MultiSelect, 0, len(cur)+1)
		removed := false
		for _, x := range cur {
			if x == value {
				removed = true
				continue
			}
			next = append(next, x)
		}
		if !removed {
			next = append(next, value)
		}
		fs := v.Filters.Clone()
		fs[key] = next
		v.Filters = fs.Normalize()
		v.Page.Page = core.DefaultPage
		return true
	})
}

// RemoveFilter drops one filter and returns to page 1.
func (s *Store[T]) RemoveFilter(key string) *Pending {
	return s.update(func(v *core.ViewState) bool {
		if _, ok := v.Filters[key]; !ok {
			return false
		}
		fs := v.Filters.Clone()
		delete(fs, key)
		v.Filters = fs
		v.Page.Page = core.DefaultPage
		return true
	})
}

// ClearFilters drops every filter and the search term and returns to page 1.
func (s *Store[T]) ClearFilters() *Pending {
	return s.update(func(v *core.ViewState) bool {
		v.Filters = core.FilterSet{}
		v.Search = ""
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetSearch changes the search term and returns to page 1.
func (s *Store[T]) SetSearch(term string) *Pending {
	return s.update(func(v *core.ViewState) bool {
		v.Search = term
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetSort changes the sort and returns to page 1.
func (s *Store[T]) SetSort(spec core.SortSpec) *Pending {
	if spec.Field == "" || !spec.Direction.Valid() {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		v.Sort = spec
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetTab switches the status tab and returns to page 1. Unknown tabs are ignored.
func (s *Store[T]) SetTab(tab string) *Pending {
	valid := false
	for _, t := range core.Tabs {
		valid = valid || t == tab
	}
	if !valid {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		v.Tab = tab
		v.Page.Page = core.DefaultPage
		return true
	})
}

// SetPage navigates to page n without touching anything else. Pages below 1
// are ignored.
func (s *Store[T]) SetPage(n int) *Pending {
	if n < 1 {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		v.Page.Page = n
		return true
	})
}

// NextPage advances one page unless already on the last known page.
func (s *Store[T]) NextPage() *Pending {
	s.mu.Lock()
	page, total := s.view.Page.Page, s.pagination.TotalPages
	s.mu.Unlock()
	if page >= total {
		return s.noop()
	}
	return s.SetPage(page + 1)
}

// PrevPage goes back one page unless already on the first.
func (s *Store[T]) PrevPage() *Pending {
	s.mu.Lock()
	page := s.view.Page.Page
	s.mu.Unlock()
	return s.SetPage(page - 1)
}

// SetPageSize changes the page size and returns to page 1. Sizes outside
// core.PageSizes are ignored.
func (s *Store[T]) SetPageSize(n int) *Pending {
	if !core.ValidPageSize(n) {
		return s.noop()
	}
	return s.update(func(v *core.ViewState) bool {
		v.Page.PageSize = n
		v.Page.Page = core.DefaultPage
		return true
	})
}

// =============================================================================
// Dispatch
// =============================================================================

// update applies mutate to the view state and, when it reports a change,
// re-encodes the URL and dispatches a fetch.
func (s *Store[T]) update(mutate func(*core.ViewState) bool) *Pending {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.noop()
	}
	next := s.view.Clone()
	if !mutate(&next) {
		s.mu.Unlock()
		return s.noop()
	}
	s.view = next
	s.query = s.codec.EncodeQuery(next)
	p := s.dispatchLocked()
	s.mu.Unlock()

	s.notifier.Broadcast(notifier.TopicView | notifier.TopicData)
	return p
}

func (s *Store[T]) noop() *Pending { return donePending(0) }

// canonical returns v as the codec would decode it from its own encoding,
// page included, after dropping filters the codec cannot carry.
func canonical(codec *viewstate.Codec, v core.ViewState) core.ViewState {
	v = v.Clone()
	v.Filters = codec.AcceptAll(v.Filters)
	return codec.Decode(codec.Encode(v))
}

// dispatchLocked issues a fetch for the current view state under a fresh token.
func (s *Store[T]) dispatchLocked() *Pending {
	s.seq++
	token := s.seq
	req := core.FetchRequestFor(s.view.Request())

	if s.inflight != nil {
		s.inflight()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.inflight = cancel
	s.loading = true

	p := newPending(token)
	go s.run(ctx, cancel, token, req, p)
	return p
}

func (s *Store[T]) run(ctx context.Context, cancel context.CancelFunc, token uint64, req core.FetchRequest, p *Pending) {
	defer cancel()

	var res core.FetchResult[T]
	var err error
	if s.src == nil {
		err = errNoSource
	} else {
		res, err = s.src.Fetch(ctx, req)
	}

	s.mu.Lock()
	if token != s.seq || s.closed {
		s.mu.Unlock()
		s.logger.Debug("discarding stale result", slog.Uint64("token", token))
		p.finish(nil)
		return
	}

	if err != nil {
		s.loading = false
		s.notices = append(s.notices, Notice{
			ID:      uuid.NewString(),
			Title:   "Error",
			Message: "Failed to load records. Please try again.",
			Detail:  err.Error(),
			At:      time.Now(),
		})
		s.mu.Unlock()
		s.logger.Warn("fetch failed", slog.Uint64("token", token), slog.Any("error", err))
		s.notifier.Broadcast(notifier.TopicData | notifier.TopicNotice)
		p.finish(err)
		return
	}

	if s.clamp && res.Pagination.TotalPages > 0 && s.view.Page.Page > res.Pagination.TotalPages {
		from := s.view.Page.Page
		s.view.Page.Page = res.Pagination.TotalPages
		s.query = s.codec.EncodeQuery(s.view)
		next := s.dispatchLocked()
		s.mu.Unlock()
		s.logger.Debug("clamping page", slog.Int("from", from), slog.Int("to", res.Pagination.TotalPages))
		s.notifier.Broadcast(notifier.TopicView)
		p.follow(next)
		return
	}

	s.data = res.Data
	if s.data == nil {
		s.data = []T{}
	}
	s.pagination = res.Pagination
	s.loading = false
	s.applied = token
	s.mu.Unlock()

	s.notifier.Broadcast(notifier.TopicData)
	p.finish(nil)
}
