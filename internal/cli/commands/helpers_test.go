package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/cli/config"
	"github.com/leapstack-labs/leapgrid/internal/cli/testutil"
)

// testConfig returns a config reading the test catalog with no latency.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Catalog.Type = "file"
	cfg.Catalog.Path = testutil.WriteCatalog(t, "catalog.csv", testutil.CatalogCSV)
	cfg.Browse.Latency = 0
	cfg.UI.AutoOpen = false
	return cfg
}

// executeCommand runs cmd with args under cfg and captures its output.
func executeCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return stdout.String(), stderr.String(), err
}
