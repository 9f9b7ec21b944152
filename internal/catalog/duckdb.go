package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapgrid/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Loader { return &DuckDBLoader{logger: logger} })
}

// DuckDBLoader reads products from a DuckDB database file. Tags are stored as
// TagSeparator-joined text.
type DuckDBLoader struct {
	logger *slog.Logger
}

// Load implements Loader.
func (l *DuckDBLoader) Load(ctx context.Context, cfg Config) ([]core.Product, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	l.logger.Debug("reading duckdb catalog", slog.String("path", path), slog.String("table", cfg.Table))
	return QueryProducts(ctx, db, cfg.Table)
}
