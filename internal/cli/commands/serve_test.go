package commands

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapgrid/internal/cli/config"
	"github.com/leapstack-labs/leapgrid/internal/table"
)

func TestServerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Type = "sqlite"
	cfg.Catalog.Path = "products.db"
	cfg.Columns = []table.Spec{{ID: "name"}}
	cfg.UI.Port = 9000
	cfg.UI.Watch = false
	cfg.UI.Dev = true
	cfg.UI.IdleTimeout = time.Hour
	cfg.Browse.Latency = 50 * time.Millisecond
	cfg.Browse.ClampPages = false
	cfg.Browse.DefaultPageSize = 50
	logger := slog.New(slog.DiscardHandler)

	got := serverConfig(cfg, logger)

	assert.Equal(t, cfg.Catalog, got.Catalog)
	assert.Equal(t, cfg.Columns, got.Columns)
	assert.Equal(t, 9000, got.Port)
	assert.False(t, got.Watch)
	assert.True(t, got.IsDev)
	assert.Equal(t, time.Hour, got.IdleTimeout)
	assert.Equal(t, 50*time.Millisecond, got.Latency)
	assert.False(t, got.ClampPages)
	assert.Equal(t, 50, got.DefaultPageSize)
	assert.Equal(t, config.DefaultSessionSecret, got.SessionSecret)
	assert.Same(t, logger, got.Logger)
}
