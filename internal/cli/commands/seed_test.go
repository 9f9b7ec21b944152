package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/cli/config"
)

func TestSeed_WritesDatabase(t *testing.T) {
	cfg := testConfig(t)
	db := filepath.Join(t.TempDir(), "products.db")

	stdout, _, err := executeCommand(t, NewSeedCommand(), cfg, cfg.Catalog.Path, "--db", db)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Catalog Seeded")
	assert.Contains(t, stdout, "**Records:** 3")
	assert.Contains(t, stdout, "**Database:** "+db)

	snap, err := catalog.Load(context.Background(), catalog.Config{Type: "sqlite", Path: db}, config.GetLogger(context.Background()))
	require.NoError(t, err)
	assert.Len(t, snap.Products, 3)
}

func TestSeed_DefaultDatabasePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFormat = "json"

	stdout, _, err := executeCommand(t, NewSeedCommand(), cfg, cfg.Catalog.Path)
	require.NoError(t, err)

	var out seedOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 3, out.Records)
	assert.Equal(t, seedDBPath(cfg.Catalog.Path), out.DB)

	_, err = os.Stat(out.DB)
	assert.NoError(t, err)
}

func TestSeed_MissingFile(t *testing.T) {
	cfg := testConfig(t)
	_, _, err := executeCommand(t, NewSeedCommand(), cfg, filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed failed")
}

func TestSeedDBPath(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{file: "products.csv", want: "products.db"},
		{file: "data/catalog.yaml", want: "data/catalog.db"},
		{file: "noext", want: "noext.db"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, seedDBPath(tt.file))
		})
	}
}
