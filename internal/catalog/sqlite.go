package catalog

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pressly/goose/v3"

	"github.com/leapstack-labs/leapgrid/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

//go:embed migrations/*.sql
var migrations embed.FS

func init() {
	Register("sqlite", func(logger *slog.Logger) Loader { return &SQLiteLoader{logger: logger} })
}

// SQLiteLoader reads products from a SQLite database file.
type SQLiteLoader struct {
	logger *slog.Logger
}

// Load implements Loader.
func (l *SQLiteLoader) Load(ctx context.Context, cfg Config) ([]core.Product, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite catalog requires a path")
	}
	db, err := OpenSQLite(ctx, cfg.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	l.logger.Debug("reading sqlite catalog", slog.String("path", cfg.Path), slog.String("table", cfg.Table))
	return QueryProducts(ctx, db, cfg.Table)
}

// OpenSQLite opens (creating if needed) a SQLite database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// Migrate brings the catalog schema up to date.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

// Seed upserts products into the migrated products table in one transaction.
// It returns the number of rows written.
func Seed(ctx context.Context, db *sql.DB, products []core.Product) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO products
		(id, name, description, category, price, stock, rating, date_added, tags, status, image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range normalize(slices.Clone(products)) {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Description, p.Category, p.Price,
			p.Stock, p.Rating, p.DateAdded, JoinTags(p.Tags), string(p.Status), p.Image); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}
	return len(products), nil
}

// SeedFile migrates the SQLite database at dbPath and loads every product of
// the catalog file at filePath into it.
func SeedFile(ctx context.Context, filePath, dbPath string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	products, err := (&FileLoader{logger: logger}).Load(ctx, Config{Path: filePath})
	if err != nil {
		return 0, err
	}
	db, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	if err := Migrate(db); err != nil {
		return 0, err
	}
	n, err := Seed(ctx, db, products)
	if err != nil {
		return 0, err
	}
	logger.Info("catalog seeded", slog.String("file", filePath), slog.String("db", dbPath), slog.Int("records", n))
	return n, nil
}
