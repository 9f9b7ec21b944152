package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/pagination"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// execResult tells the loop what to do after a command.
type execResult struct {
	pending *browse.Pending
	redraw  bool
	quit    bool
}

func redraw(p *browse.Pending) execResult { return execResult{pending: p, redraw: true} }

// exec runs one browser command line.
func (b *browser) exec(line string) (execResult, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return execResult{}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	store := b.ws.Store

	switch name {
	case "quit", "exit", "q":
		return execResult{quit: true}, nil

	case "help", "?":
		printBrowseHelp(b.r)
		return execResult{}, nil

	case "show", "ls":
		return redraw(nil), nil

	case "next", "n":
		return redraw(store.NextPage()), nil

	case "prev", "p":
		return redraw(store.PrevPage()), nil

	case "page":
		n, err := intArg(args, "page N")
		if err != nil {
			return execResult{}, err
		}
		if n < 1 {
			return execResult{}, fmt.Errorf("page must be at least 1")
		}
		return redraw(store.SetPage(n)), nil

	case "size":
		n, err := intArg(args, "size N")
		if err != nil {
			return execResult{}, err
		}
		if !core.ValidPageSize(n) {
			return execResult{}, fmt.Errorf("page size must be one of %s", joinInts(core.PageSizes))
		}
		return redraw(store.SetPageSize(n)), nil

	case "sort":
		if len(args) != 1 {
			return execResult{}, fmt.Errorf("usage: sort COL")
		}
		next, ok := b.ws.Table.ToggleSort(args[0], store.View().Sort)
		if !ok {
			return execResult{}, fmt.Errorf("column %q is not sortable", args[0])
		}
		return redraw(store.SetSort(next)), nil

	case "search", "/":
		return redraw(store.SetSearch(strings.Join(args, " "))), nil

	case "filter":
		if len(args) < 2 {
			return execResult{}, fmt.Errorf("usage: filter KEY VALUE...")
		}
		return b.filter(args[0], args[1:])

	case "unfilter":
		if len(args) != 1 {
			return execResult{}, fmt.Errorf("usage: unfilter KEY")
		}
		return redraw(store.RemoveFilter(args[0])), nil

	case "clear":
		return redraw(store.ClearFilters()), nil

	case "tab":
		if len(args) != 1 {
			return execResult{}, fmt.Errorf("usage: tab %s", strings.Join(core.Tabs, "|"))
		}
		p := store.SetTab(strings.ToLower(args[0]))
		if p.Token() == 0 {
			return execResult{}, fmt.Errorf("unknown tab %q (want %s)", args[0], strings.Join(core.Tabs, ", "))
		}
		return redraw(p), nil

	case "select":
		if len(args) != 1 {
			return execResult{}, fmt.Errorf("usage: select ID|N|all|none")
		}
		return b.selectRows(args[0])

	case "resize":
		if len(args) != 2 {
			return execResult{}, fmt.Errorf("usage: resize COL DX")
		}
		dx, err := strconv.Atoi(args[1])
		if err != nil {
			return execResult{}, fmt.Errorf("invalid width change %q", args[1])
		}
		return b.resize(args[0], dx)

	case "url":
		b.r.Println(productsURL(store.Query()))
		return execResult{}, nil
	}
	return execResult{}, fmt.Errorf("unknown command %q (type help for commands)", name)
}

// filter applies typed input for key. Range bounds take "-" for an open end:
// "filter price - 50".
func (b *browser) filter(key string, values []string) (execResult, error) {
	for i, v := range values {
		if v == "-" {
			values[i] = ""
		}
	}
	p := b.ws.Store.SetFilterInput(key, values...)
	if p.Token() == 0 {
		return execResult{}, fmt.Errorf("invalid value for filter %q", key)
	}
	return redraw(p), nil
}

// selectRows toggles one row by id or 1-based position on the page.
func (b *browser) selectRows(arg string) (execResult, error) {
	tbl := b.ws.Table
	switch strings.ToLower(arg) {
	case "all":
		if !tbl.AllSelected() {
			tbl.ToggleAll()
		}
		return redraw(nil), nil
	case "none":
		tbl.ClearSelection()
		return redraw(nil), nil
	}
	if tbl.ToggleRow(arg) {
		return redraw(nil), nil
	}
	rows := tbl.Rows()
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(rows) {
		tbl.ToggleRow(rows[n-1].RecordID())
		return redraw(nil), nil
	}
	return execResult{}, fmt.Errorf("row %q is not on the current page", arg)
}

// resize runs a whole drag of dx pixels on a column's resize handle.
func (b *browser) resize(columnID string, dx int) (execResult, error) {
	tbl := b.ws.Table
	drag, err := tbl.BeginResize(columnID, 0)
	if err != nil {
		return execResult{}, err
	}
	w := tbl.ResizeMove(drag, dx)
	tbl.EndResize(drag)
	b.r.Println(b.r.Styles().Muted.Render(fmt.Sprintf("%s is now %dpx wide", columnID, w)))
	return redraw(nil), nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return n, nil
}

func joinInts(ns []int) string {
	s := make([]string, len(ns))
	for i, n := range ns {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ", ")
}

// tabBar renders the status tabs with the active one bracketed.
func tabBar(active string, styles *output.Styles) string {
	parts := make([]string, len(core.Tabs))
	for i, tab := range core.Tabs {
		if tab == active {
			parts[i] = styles.Bold.Render("[" + tab + "]")
			continue
		}
		parts[i] = styles.Muted.Render(" " + tab + " ")
	}
	return strings.Join(parts, " ")
}

// pageWindow renders the page tokens with the current page bracketed.
func pageWindow(p core.Pagination, styles *output.Styles) string {
	toks := pagination.Window(p.Page, p.TotalPages)
	parts := make([]string, len(toks))
	for i, tok := range toks {
		if !tok.Ellipsis && tok.Page == p.Page {
			parts[i] = styles.Bold.Render("[" + tok.String() + "]")
			continue
		}
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}

// completer offers command names, column ids, tabs and filter keys.
func (b *browser) completer() *readline.PrefixCompleter {
	var cols []readline.PrefixCompleterInterface
	for _, col := range b.ws.Table.Columns() {
		cols = append(cols, readline.PcItem(col.ID))
	}
	var sortable []readline.PrefixCompleterInterface
	for _, col := range b.ws.Table.Columns() {
		if col.Sortable {
			sortable = append(sortable, readline.PcItem(col.ID))
		}
	}
	var tabs []readline.PrefixCompleterInterface
	for _, tab := range core.Tabs {
		tabs = append(tabs, readline.PcItem(tab))
	}
	var keys []readline.PrefixCompleterInterface
	for _, spec := range core.ProductFilters {
		keys = append(keys, readline.PcItem(spec.Key))
	}
	var sizes []readline.PrefixCompleterInterface
	for _, n := range core.PageSizes {
		sizes = append(sizes, readline.PcItem(strconv.Itoa(n)))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("page"),
		readline.PcItem("size", sizes...),
		readline.PcItem("sort", sortable...),
		readline.PcItem("search"),
		readline.PcItem("filter", keys...),
		readline.PcItem("unfilter", keys...),
		readline.PcItem("clear"),
		readline.PcItem("tab", tabs...),
		readline.PcItem("select", readline.PcItem("all"), readline.PcItem("none")),
		readline.PcItem("resize", cols...),
		readline.PcItem("show"),
		readline.PcItem("url"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

func printBrowseHelp(r *output.Renderer) {
	help := `
Navigation:
  next | prev            Move one page
  page N                 Go to page N
  size N                 Rows per page (10, 20, 50, 100)
  show                   Redraw the current page

View:
  sort COL               Sort by a column; again to flip the direction
  search TERM...         Search name, description and category
  filter KEY VALUE...    Set a filter (use - for an open range end)
  unfilter KEY           Remove one filter
  clear                  Remove every filter and the search term
  tab NAME               all, active, archived or draft

Table:
  select ID|N|all|none   Toggle a row by id or position, or the whole page
  resize COL DX          Widen (or narrow, with a negative DX) a column

Other:
  url                    Print the web UI address of this view
  help                   Show this help message
  quit                   Exit the browser

Examples:
  filter category Books Toys
  filter price 10 50
  filter date 2024-01-01 -
  filter inStock true
`
	r.Println(help)
}
