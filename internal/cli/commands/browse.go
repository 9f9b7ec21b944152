package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// BrowseOptions holds options for the browse command.
type BrowseOptions struct {
	Latency time.Duration
	Clamp   bool
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &BrowseOptions{}

	cmd := &cobra.Command{
		Use:   "browse [querystring]",
		Short: "Browse the catalog in the terminal",
		Long: `Browse the catalog interactively in the terminal.

The terminal browser drives the same view state, data source and table
controller as the web UI: every command changes the view, the page is
re-fetched and redrawn, and 'url' prints the address that shows the same
view in the browser.

Type 'help' at the prompt for the list of commands.`,
		Example: `  # Start from the first page
  leapgrid browse

  # Start from a shared URL
  leapgrid browse "/products?tab=active&sort=price&order=desc"

  # Browse a SQLite catalog without the simulated latency
  leapgrid browse --catalog products.db --latency 0s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, args)
		},
	}

	cmd.Flags().DurationVar(&opts.Latency, "latency", 0, "Simulated fetch latency (default: browse.latency)")
	cmd.Flags().BoolVar(&opts.Clamp, "clamp", true, "Move to the last page when the requested page is past the end")

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := commandContext(cmd)

	ws, err := cmdCtx.openWorkspace(ctx, cmdCtx.initialView(args), cmdCtx.Cfg.Browse.Latency)
	if err != nil {
		return err
	}
	defer ws.Close()

	b := newBrowser(ws, cmdCtx)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          browsePrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    b.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r := cmdCtx.Renderer
	r.Println(r.Styles().Bold.Render("leapgrid browser") + r.Styles().Muted.Render(" (type help for commands, quit to exit)"))
	r.Println("")

	return b.run(ctx, rl)
}

const browsePrompt = "leapgrid> "

// lineReader is the part of readline the browser loop needs.
type lineReader interface {
	Readline() (string, error)
}

// historyFile is the browser's readline history, or "" when no cache
// directory is available.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "leapgrid")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "browse_history")
}

// browser is one terminal browsing session over a workspace.
type browser struct {
	ws    *workspace.Workspace
	cc    *CommandContext
	r     *output.Renderer
	fetch time.Duration
}

// fetchTimeout bounds how long a command waits for its page.
const fetchTimeout = 30 * time.Second

func newBrowser(ws *workspace.Workspace, cc *CommandContext) *browser {
	return &browser{ws: ws, cc: cc, r: cc.Renderer, fetch: fetchTimeout}
}

// run loads the first page and then executes lines until quit or EOF.
func (b *browser) run(ctx context.Context, in lineReader) error {
	b.settle(ctx, b.ws.Load())
	if err := b.render(ctx); err != nil {
		return err
	}

	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		res, err := b.exec(strings.TrimSpace(line))
		if err != nil {
			b.r.Error(err.Error())
			continue
		}
		if res.quit {
			return nil
		}
		if res.pending != nil {
			b.settle(ctx, res.pending)
		}
		if res.redraw {
			if err := b.render(ctx); err != nil {
				return err
			}
		}
	}
}

// settle waits for a fetch. Failures surface as store notices, so the error
// is not returned.
func (b *browser) settle(ctx context.Context, p *browse.Pending) {
	ctx, cancel := context.WithTimeout(ctx, b.fetch)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		b.cc.Logger.Debug("fetch did not settle cleanly", slog.Any("error", err))
	}
}

// render draws the current page, then shows and dismisses pending notices.
func (b *browser) render(ctx context.Context) error {
	res, err := buildPageResult(ctx, b.ws, b.cc.columnSpecs(), b.cc.Logger)
	if err != nil {
		return err
	}
	view := b.ws.Store.View()
	styles := b.r.Styles()

	b.r.Println(tabBar(view.Tab, styles))
	if line := filterLine(view); line != "" {
		b.r.Println(styles.Muted.Render(line))
	}

	if len(res.cells) == 0 {
		b.r.Println("No results found.")
	} else {
		t := newPageTable(res, view.Sort, true)
		t.SetOutputMirror(b.r.Writer())
		t.SetStyle(prettytable.StyleLight)
		t.Render()
	}

	b.r.Println(res.Summary + "   " + pageWindow(res.Pagination, styles))
	if n := len(res.Selected); n > 0 {
		b.r.Println(styles.Info.Render(fmt.Sprintf("%d item(s) selected", n)))
	}
	for _, n := range b.ws.Store.Notices() {
		b.r.Warning(n.Title + ": " + n.Message + " (" + n.Detail + ")")
		b.ws.Store.Dismiss(n.ID)
	}
	b.r.Println("")
	return nil
}

// filterLine summarizes the search term and active filters.
func filterLine(v core.ViewState) string {
	var parts []string
	if v.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", v.Search))
	}
	fs := v.Filters.Normalize()
	for _, key := range fs.Keys() {
		parts = append(parts, key+": "+fs[key].String())
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filters  " + strings.Join(parts, " · ")
}
