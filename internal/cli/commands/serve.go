package commands

import (
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/cli/config"
	"github.com/leapstack-labs/leapgrid/internal/ui"
)

// ServeOptions holds options for the serve command. Port, watch, dev and
// latency reach the server through the config layer; the fields only back
// the flags.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
	Dev       bool
	Latency   time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the product browser web UI",
		Long: `Start a local web server with the interactive product browser.

The UI provides:
- Filters, search, sorting and status tabs kept in the URL
- Pagination with a page window and page-size selector
- Row selection and resizable columns
- Table and grid views
- Live reload of file catalogs when they change on disk`,
		Example: `  # Serve the demo catalog on the default port
  leapgrid serve

  # Serve a CSV catalog on a custom port
  leapgrid serve --catalog products.csv --port 3000

  # Start without auto-opening the browser
  leapgrid serve --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the catalog when its file changes")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable the development hot reload endpoints")
	cmd.Flags().DurationVar(&opts.Latency, "latency", 0, "Simulated fetch latency (default: 300ms)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	server, err := ui.NewServer(serverConfig(cfg, cmdCtx.Logger))
	if err != nil {
		return err
	}

	if cfg.UI.AutoOpen && !opts.NoBrowser {
		go openBrowser(server.URL())
	}

	r := cmdCtx.Renderer
	r.Printf("Starting UI server on %s\n", server.URL())
	r.Println(r.Styles().Muted.Render("Press Ctrl+C to stop"))

	return server.Serve(commandContext(cmd))
}

// serverConfig maps the CLI configuration onto the UI server's.
func serverConfig(cfg *config.Config, logger *slog.Logger) ui.Config {
	return ui.Config{
		Catalog:         cfg.Catalog,
		Columns:         cfg.Columns,
		Port:            cfg.UI.Port,
		Watch:           cfg.UI.Watch,
		SessionSecret:   cfg.UI.SessionSecret,
		Latency:         cfg.Browse.Latency,
		ClampPages:      cfg.Browse.ClampPages,
		DefaultPageSize: cfg.Browse.DefaultPageSize,
		IdleTimeout:     cfg.UI.IdleTimeout,
		IsDev:           cfg.UI.Dev,
		Logger:          logger,
	}
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
