package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/source"
	"github.com/leapstack-labs/leapgrid/internal/viewstate"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
}

// Query output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [querystring]",
		Short: "Render one page of the catalog",
		Long: `Render one page of the catalog for a view state given as a URL query
string, exactly as the web UI would show it at /products?<querystring>.

The output lists the page rows, the "Showing x to y of z items" summary, the
page window and the canonical URL of the view.`,
		Example: `  # First page with default sorting
  leapgrid query

  # Active electronics under 100, sorted by price
  leapgrid query "category[]=Electronics&priceMax=100&tab=active&sort=price"

  # Page 3 of 50 rows as JSON
  leapgrid query "page=3&pageSize=50" --format json

  # Export the current page as CSV
  leapgrid query "q=lamp" --format csv > lamps.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md (default: from --output)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := commandContext(cmd)

	format, err := queryFormat(opts.Format, cmdCtx.Renderer)
	if err != nil {
		return err
	}

	ws, err := cmdCtx.openWorkspace(ctx, cmdCtx.initialView(args), 0)
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := ws.Load().Wait(ctx); err != nil {
		return fmt.Errorf("failed to load page: %w", err)
	}
	res, err := buildPageResult(ctx, ws, cmdCtx.columnSpecs(), cmdCtx.Logger)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch format {
	case FormatJSON:
		return r.JSON(res)
	case FormatCSV:
		return renderPageCSV(r.Writer(), res)
	case FormatMarkdown:
		return renderPageMarkdown(r, res)
	default:
		return renderPageTable(r, res)
	}
}

// queryFormat resolves the --format flag, falling back to the output mode.
func queryFormat(flag string, r *output.Renderer) (string, error) {
	switch strings.ToLower(flag) {
	case FormatTable, FormatJSON, FormatCSV:
		return strings.ToLower(flag), nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case "":
	default:
		return "", fmt.Errorf("unknown format %q (want table, json, csv or md)", flag)
	}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return FormatJSON, nil
	case output.ModeMarkdown:
		return FormatMarkdown, nil
	default:
		return FormatTable, nil
	}
}

// openWorkspace loads the catalog and builds a workspace over it, the same
// pairing of store and table controller the web UI keeps per session.
func (c *CommandContext) openWorkspace(ctx context.Context, initial core.ViewState, latency time.Duration) (*workspace.Workspace, error) {
	cols, err := c.Columns()
	if err != nil {
		return nil, err
	}
	snap, err := c.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	mem := source.NewMemory(snap.Products, source.MemoryConfig{Latency: latency, Logger: c.Logger})
	return workspace.New(workspace.Config{
		Source:     mem,
		Dataset:    func() string { return snap.Version },
		Columns:    cols,
		Initial:    &initial,
		ClampPages: c.Cfg.Browse.ClampPages,
		Logger:     c.Logger,
	}), nil
}

// decodeView decodes a query string, a "?query" or a full "/products?query"
// URL. Without a pageSize parameter the view uses pageSize, when valid.
func decodeView(raw string, pageSize int) core.ViewState {
	if _, after, ok := strings.Cut(raw, "?"); ok {
		raw = after
	}
	// ParseQuery keeps every pair it could parse alongside the first error.
	values, _ := url.ParseQuery(raw)
	v := viewstate.Decode(values)
	if !values.Has(viewstate.KeyPageSize) && core.ValidPageSize(pageSize) {
		v.Page.PageSize = pageSize
	}
	return v
}

// productsURL is the web UI address of a view.
func productsURL(query string) string {
	return "/products?" + query
}
