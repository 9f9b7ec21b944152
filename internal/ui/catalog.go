package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/source"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// liveCatalog is the catalog snapshot every workspace browses. Reloading it
// swaps the memory source's records and re-queries every workspace.
type liveCatalog struct {
	cfg    catalog.Config
	src    *source.Memory[core.Product]
	logger *slog.Logger

	mu     sync.RWMutex
	facets catalog.Facets
}

func newLiveCatalog(cfg catalog.Config, src *source.Memory[core.Product], logger *slog.Logger) *liveCatalog {
	return &liveCatalog{cfg: cfg, src: src, logger: logger}
}

// Facets implements products.FacetSource.
func (c *liveCatalog) Facets() catalog.Facets {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facets
}

// Version identifies the current snapshot.
func (c *liveCatalog) Version() string { return c.src.Version() }

// Load reads the catalog and installs it. On error the previous snapshot stays.
func (c *liveCatalog) Load(ctx context.Context) error {
	snap, err := catalog.Load(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	facets := catalog.FacetsOf(snap.Products)
	c.mu.Lock()
	c.facets = facets
	c.mu.Unlock()
	c.src.Replace(snap.Products, snap.Version)
	return nil
}
