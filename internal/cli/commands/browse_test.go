package commands

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/internal/cli/config"
	"github.com/leapstack-labs/leapgrid/internal/cli/output"
	"github.com/leapstack-labs/leapgrid/internal/cli/testutil"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// scriptedReader replays lines, then reports EOF.
type scriptedReader struct {
	lines []string
	errs  map[int]error
	n     int
}

func (s *scriptedReader) Readline() (string, error) {
	defer func() { s.n++ }()
	if err, ok := s.errs[s.n]; ok {
		return "", err
	}
	if s.n >= len(s.lines) {
		return "", io.EOF
	}
	return s.lines[s.n], nil
}

// newTestBrowser opens a browser over the test catalog writing to buffers.
func newTestBrowser(t *testing.T) (*browser, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	tr := testutil.NewTestRenderer(output.ModeText, false)
	cc := &CommandContext{
		Cfg:      testConfig(t),
		Logger:   config.GetLogger(context.Background()),
		Renderer: tr.Renderer,
	}

	ws, err := cc.openWorkspace(context.Background(), cc.initialView(nil), 0)
	require.NoError(t, err)
	t.Cleanup(ws.Close)

	return newBrowser(ws, cc), tr.Out, tr.ErrOut
}

func runScript(t *testing.T, b *browser, lines ...string) {
	t.Helper()
	require.NoError(t, b.run(context.Background(), &scriptedReader{lines: lines}))
}

// =============================================================================
// Loop
// =============================================================================

func TestBrowser_RendersFirstPage(t *testing.T) {
	b, stdout, _ := newTestBrowser(t)
	runScript(t, b)

	out := stdout.String()
	testutil.AssertNoANSI(t, out)
	assert.Contains(t, out, "[all]")
	assert.Contains(t, strings.ToLower(out), "product ↑")
	assert.Contains(t, out, "Desk")
	assert.Contains(t, out, "Showing 1 to 3 of 3 items")
}

func TestBrowser_QuitStopsReading(t *testing.T) {
	b, _, _ := newTestBrowser(t)
	r := &scriptedReader{lines: []string{"quit", "url"}}

	require.NoError(t, b.run(context.Background(), r))
	assert.Equal(t, 1, r.n)
}

func TestBrowser_InterruptContinues(t *testing.T) {
	b, stdout, _ := newTestBrowser(t)
	r := &scriptedReader{
		lines: []string{"", "url"},
		errs:  map[int]error{0: readline.ErrInterrupt},
	}

	require.NoError(t, b.run(context.Background(), r))
	assert.Contains(t, stdout.String(), "/products?page=1&pageSize=10&sort=name&order=asc&tab=all")
}

func TestBrowser_ErrorsDoNotStopTheLoop(t *testing.T) {
	b, stdout, stderr := newTestBrowser(t)
	runScript(t, b, "frobnicate", "url")

	assert.Contains(t, stderr.String(), `unknown command "frobnicate"`)
	assert.Contains(t, stdout.String(), "/products?")
}

// =============================================================================
// Commands
// =============================================================================

func TestBrowser_ViewCommands(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		wantQuery string
		wantNames []string
	}{
		{
			name:      "sort toggles direction",
			lines:     []string{"sort name"},
			wantQuery: "page=1&pageSize=10&sort=name&order=desc&tab=all",
			wantNames: []string{"Mug", "Lamp", "Desk"},
		},
		{
			name:      "sort other column",
			lines:     []string{"sort price"},
			wantQuery: "page=1&pageSize=10&sort=price&order=asc&tab=all",
			wantNames: []string{"Mug", "Lamp", "Desk"},
		},
		{
			name:      "tab",
			lines:     []string{"tab archived"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=archived",
			wantNames: []string{"Desk"},
		},
		{
			name:      "search",
			lines:     []string{"search lamp"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&q=lamp&tab=all",
			wantNames: []string{"Lamp"},
		},
		{
			name:      "multi-select filter",
			lines:     []string{"filter category Office"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all&category[]=Office",
			wantNames: []string{"Desk"},
		},
		{
			name:      "open range",
			lines:     []string{"filter price - 30"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all&priceMax=30",
			wantNames: []string{"Lamp", "Mug"},
		},
		{
			name:      "unfilter",
			lines:     []string{"filter category Office", "unfilter category"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all",
			wantNames: []string{"Desk", "Lamp", "Mug"},
		},
		{
			name:      "clear",
			lines:     []string{"search mug", "filter category Office", "clear"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all",
			wantNames: []string{"Desk", "Lamp", "Mug"},
		},
		{
			name:      "page size",
			lines:     []string{"size 20"},
			wantQuery: "page=1&pageSize=20&sort=name&order=asc&tab=all",
			wantNames: []string{"Desk", "Lamp", "Mug"},
		},
		{
			name:      "next on the last page",
			lines:     []string{"next"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all",
			wantNames: []string{"Desk", "Lamp", "Mug"},
		},
		{
			name:      "page past the end clamps",
			lines:     []string{"page 4"},
			wantQuery: "page=1&pageSize=10&sort=name&order=asc&tab=all",
			wantNames: []string{"Desk", "Lamp", "Mug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := newTestBrowser(t)
			runScript(t, b, tt.lines...)

			snap := b.ws.Sync()
			assert.Equal(t, tt.wantQuery, snap.Query)
			names := make([]string, len(snap.Data))
			for i, p := range snap.Data {
				names[i] = p.Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestBrowser_Exec_Errors(t *testing.T) {
	tests := []struct {
		line      string
		errSubstr string
	}{
		{line: "page", errSubstr: "usage: page N"},
		{line: "page 0", errSubstr: "page must be at least 1"},
		{line: "page x", errSubstr: `invalid number "x"`},
		{line: "size 7", errSubstr: "page size must be one of 10, 20, 50, 100"},
		{line: "sort nope", errSubstr: `column "nope" is not sortable`},
		{line: "filter price", errSubstr: "usage: filter KEY VALUE..."},
		{line: "filter rating lots", errSubstr: `invalid value for filter "rating"`},
		{line: "tab pending", errSubstr: `unknown tab "pending"`},
		{line: "select A-9", errSubstr: `row "A-9" is not on the current page`},
		{line: "resize nope 10", errSubstr: `unknown column "nope"`},
		{line: "resize name wide", errSubstr: `invalid width change "wide"`},
	}

	b, _, _ := newTestBrowser(t)
	runScript(t, b)

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := b.exec(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestBrowser_Selection(t *testing.T) {
	b, stdout, _ := newTestBrowser(t)
	runScript(t, b, "select A-1", "select 1")

	tbl := b.ws.Table
	assert.True(t, tbl.IsSelected("A-1"))
	assert.True(t, tbl.IsSelected("A-3"), "position 1 is Desk")
	assert.False(t, tbl.IsSelected("A-2"))
	assert.Contains(t, stdout.String(), "2 item(s) selected")

	_, err := b.exec("select all")
	require.NoError(t, err)
	assert.True(t, tbl.AllSelected())

	_, err = b.exec("select none")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.SelectedCount())
}

func TestBrowser_SelectionPrunedToPage(t *testing.T) {
	b, _, _ := newTestBrowser(t)
	runScript(t, b, "select all", "tab active")

	assert.Equal(t, 1, b.ws.Table.SelectedCount())
	assert.True(t, b.ws.Table.IsSelected("A-1"))
}

func TestBrowser_Resize(t *testing.T) {
	b, stdout, _ := newTestBrowser(t)
	runScript(t, b, "resize price 40", "resize stock -500")

	assert.Equal(t, 190, b.ws.Table.Width("price"))
	assert.Equal(t, 100, b.ws.Table.Width("stock"), "clamped to the minimum width")
	assert.Contains(t, stdout.String(), "price is now 190px wide")
	_, active := b.ws.Table.Resizing()
	assert.False(t, active)
}

func TestBrowser_HelpAndURL(t *testing.T) {
	b, stdout, _ := newTestBrowser(t)
	runScript(t, b, "help", "sort price", "url")

	out := stdout.String()
	assert.Contains(t, out, "Navigation:")
	assert.Contains(t, out, "/products?page=1&pageSize=10&sort=price&order=asc&tab=all")
}

// =============================================================================
// Rendering helpers
// =============================================================================

func TestFilterLine(t *testing.T) {
	assert.Empty(t, filterLine(core.DefaultViewState()))

	v := core.DefaultViewState()
	v.Search = "lamp"
	v.Filters = core.FilterSet{"category": core.MultiSelect{"Books", "Toys"}}
	line := filterLine(v)
	assert.True(t, strings.HasPrefix(line, "Filters  "))
	assert.Contains(t, line, `search: "lamp"`)
	assert.Contains(t, line, "category: Books, Toys")
}

func TestPageWindow(t *testing.T) {
	styles := output.NewRenderer(io.Discard, io.Discard, output.ModeText).Styles()
	got := pageWindow(core.Pagination{Page: 5, PageSize: 10, Total: 200, TotalPages: 20}, styles)

	assert.Contains(t, got, "[5]")
	assert.True(t, strings.HasPrefix(got, "1 "))
	assert.True(t, strings.HasSuffix(got, " 20"))
}

func TestTabBar(t *testing.T) {
	styles := output.NewRenderer(io.Discard, io.Discard, output.ModeText).Styles()
	got := tabBar("draft", styles)

	assert.Contains(t, got, "[draft]")
	assert.Contains(t, got, " all ")
	assert.NotContains(t, got, "[all]")
}
