// Package ui provides the web product browser.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/derive"
	"github.com/leapstack-labs/leapgrid/internal/source"
	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/internal/ui/features/products"
	"github.com/leapstack-labs/leapgrid/internal/ui/router"
	"github.com/leapstack-labs/leapgrid/internal/ui/session"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// watchDebounce coalesces bursts of catalog file events into one reload.
const watchDebounce = 100 * time.Millisecond

// Server is the main UI server.
type Server struct {
	port     int
	watch    bool
	isDev    bool
	pageSize int
	sweep    time.Duration
	logger   *slog.Logger
	catalog  *liveCatalog
	source   core.DataSource[core.Product]
	columns  []table.Column[core.Product]

	sessions *session.Manager
}

// Config holds configuration for the UI server.
type Config struct {
	Catalog catalog.Config
	Columns []table.Spec
	Port    int
	// Watch reloads the catalog when its file changes.
	Watch         bool
	SessionSecret string
	// Latency is the simulated fetch delay; negative selects the default.
	Latency    time.Duration
	ClampPages bool
	// DefaultPageSize applies to page loads without a pageSize parameter.
	DefaultPageSize int
	IdleTimeout     time.Duration
	IsDev           bool
	Logger          *slog.Logger
}

// NewServer creates a new UI server instance. The catalog is not read until
// Serve or Load is called.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	columns, err := derive.ProductColumns(cfg.Columns, logger)
	if err != nil {
		return nil, fmt.Errorf("invalid columns: %w", err)
	}

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	mem := source.NewMemory([]core.Product{}, source.MemoryConfig{Latency: cfg.Latency, Logger: logger})
	s := &Server{
		port:     cfg.Port,
		watch:    cfg.Watch,
		isDev:    cfg.IsDev,
		pageSize: cfg.DefaultPageSize,
		logger:   logger,
		catalog:  newLiveCatalog(cfg.Catalog, mem, logger),
		source:   source.NewBreaker(mem, source.BreakerConfig{Name: "catalog", Logger: logger}),
		columns:  columns,
	}

	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = session.DefaultIdleTimeout
	}
	s.sweep = idle / 2
	s.sessions = session.NewManager(sessionStore, func(initial core.ViewState) *workspace.Workspace {
		return workspace.New(workspace.Config{
			Source:     s.source,
			Dataset:    s.catalog.Version,
			Columns:    s.columns,
			Initial:    &initial,
			ClampPages: cfg.ClampPages,
			Logger:     logger,
		})
	}, idle, logger)
	return s, nil
}

// Load reads the catalog.
func (s *Server) Load(ctx context.Context) error {
	return s.catalog.Load(ctx)
}

// Reload re-reads the catalog and refreshes every open workspace. A failed
// read keeps the previous snapshot.
func (s *Server) Reload(ctx context.Context) error {
	if err := s.catalog.Load(ctx); err != nil {
		return err
	}
	s.sessions.Each(func(ws *workspace.Workspace) { ws.Reload() })
	return nil
}

// Sessions returns the workspace manager.
func (s *Server) Sessions() *session.Manager { return s.sessions }

// Handler builds the HTTP handler.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	if err := router.SetupRoutes(r, products.Config{
		Sessions:        s.sessions,
		Facets:          s.catalog,
		IsDev:           s.isDev,
		DefaultPageSize: s.pageSize,
		Logger:          s.logger,
	}); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve loads the catalog, starts the UI server and blocks until the context
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Load(ctx); err != nil {
		return err
	}
	defer s.sessions.Close()

	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting UI server", "addr", s.URL())

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start file watcher if enabled
	if s.watch {
		eg.Go(func() error {
			return s.watchCatalog(egctx)
		})
	}

	eg.Go(func() error {
		return s.sweepIdle(egctx)
	})

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// URL is the address of the products page.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d/products", s.port)
}

// IsDev returns true if running in development mode.
func (s *Server) IsDev() bool {
	return s.isDev
}

func (s *Server) sweepIdle(ctx context.Context) error {
	ticker := time.NewTicker(s.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.logger.Debug("swept idle workspaces", slog.Int("count", n), slog.Int("live", s.sessions.Len()))
			}
		}
	}
}

// watchCatalog reloads the catalog when its file changes. Only file-backed
// catalogs can be watched; the parent directory is watched so editors that
// replace the file on save are still seen.
func (s *Server) watchCatalog(ctx context.Context) error {
	path := s.catalog.cfg.Path
	if path == "" {
		s.logger.Warn("catalog has no file to watch", slog.String("type", s.catalog.cfg.Type))
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		s.logger.Error("failed to watch catalog", "error", err)
		// Don't fail - continue without watching
		return nil
	}

	// Debounce timer
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, err := filepath.Abs(event.Name); err != nil || name != abs {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("catalog changed, reloading", "file", event.Name)
				if err := s.Reload(ctx); err != nil {
					s.logger.Error("catalog reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
