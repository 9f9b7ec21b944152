package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Loader { return &PostgresLoader{logger: logger} })
}

// PostgresLoader reads products from PostgreSQL. The tags column may be text
// or a text[] array.
type PostgresLoader struct {
	logger *slog.Logger
}

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context, cfg Config) ([]core.Product, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres catalog requires a dsn")
	}

	l.logger.Debug("connecting to postgres", slog.String("dsn", redactDSN(cfg.DSN)))

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return QueryProducts(ctx, db, cfg.Table)
}
