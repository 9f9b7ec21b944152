package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
	"github.com/leapstack-labs/leapgrid/internal/cli/config"
	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/derive"
	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext reads the config and logger the root command stored in
// the context and builds a renderer for the configured output mode.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(commandContext(cmd))
	logger := config.GetLogger(commandContext(cmd))
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat),
		output.WithTheme(cfg.UI.Theme))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// commandContext returns the command's context, which is nil when a command
// runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// LoadCatalog reads the configured catalog.
func (c *CommandContext) LoadCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	return catalog.Load(ctx, c.Cfg.Catalog, c.Logger)
}

// Columns builds the configured product columns.
func (c *CommandContext) Columns() ([]table.Column[core.Product], error) {
	cols, err := derive.ProductColumns(c.Cfg.Columns, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("invalid columns: %w", err)
	}
	return cols, nil
}

// columnSpecs returns the configured column specs, or the product defaults.
func (c *CommandContext) columnSpecs() []table.Spec {
	if len(c.Cfg.Columns) == 0 {
		return table.ProductSpecs
	}
	return c.Cfg.Columns
}

// initialView decodes a query string argument, applying the configured
// default page size when the argument names none.
func (c *CommandContext) initialView(args []string) core.ViewState {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	}
	return decodeView(raw, c.Cfg.Browse.DefaultPageSize)
}
