package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/leapgrid/internal/browse"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func sampleView(mode string) ProductsView {
	rows := []Row{
		{ID: "p1", Product: core.Product{ID: "p1", Name: "Desk <Lamp>", Description: "Warm light", Status: core.StatusActive, Tags: []string{"home"}},
			Cells: []Cell{{ColumnID: "name", Width: 240}, {ColumnID: "status", Text: "active", Width: 100}}},
		{ID: "p2", Selected: true, Product: core.Product{ID: "p2", Name: "Chair", Status: core.StatusDraft, Rating: 4},
			Cells: []Cell{{ColumnID: "name", Width: 240}, {ColumnID: "rating", Text: "4", Width: 120}}},
	}
	return ProductsView{
		Title:         "All Products",
		Mode:          mode,
		Query:         "q=lamp&sort=name",
		Headers:       []Header{{ID: "name", Title: "Name", Width: 240, Sortable: true, Sort: "asc"}, {ID: "status", Title: "Status", Width: 100}},
		Rows:          rows,
		SelectedCount: 1,
		SomeSelected:  true,
		Summary:       "Showing 1 to 2 of 2 items",
		Links:         []PageLink{{Label: "1", Page: 1, Current: true}},
		PageSize:      10,
		PageSizes:     []int{10, 20},
		Tabs:          []Tab{{Name: "all", Label: "All", Active: true}, {Name: "draft", Label: "Draft"}},
		Chips:         []Chip{{Key: "status", Label: "status: active"}},
		Filters:       Filters{Search: "lamp", Statuses: []Option{{Value: "active", Checked: true}}},
		Notices:       []browse.Notice{{ID: "n1", Title: "Load failed", Message: "timeout"}},
	}
}

func attrsOf(t *testing.T, doc string, key string) []map[string]string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	var out []map[string]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := map[string]string{}
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			if _, ok := attrs[key]; ok {
				out = append(out, attrs)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func TestProductsApp(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		wantRows []string
		wantBody []string
	}{
		{
			name:     "table",
			mode:     "table",
			wantRows: []string{"p1", "p2"},
			wantBody: []string{`id="app"`, "Active filters:", "status: active", "1 item selected", "Showing 1 to 2 of 2 items", `aria-label="ascending"`},
		},
		{
			name:     "grid",
			mode:     "grid",
			wantRows: []string{"p1", "p2"},
			wantBody: []string{`class="card selected"`, `<span class="badge badge-outline">home</span>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := renderString(t, ProductsApp(sampleView(tt.mode)))

			var ids []string
			for _, a := range attrsOf(t, body, "data-row") {
				ids = append(ids, a["data-row"])
			}
			assert.Equal(t, tt.wantRows, ids)
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want)
			}
			assert.NotContains(t, body, "<Lamp>")
			assert.Contains(t, body, "Desk &lt;Lamp&gt;")
		})
	}
}

func TestProductsApp_Empty(t *testing.T) {
	v := sampleView("table")
	v.Rows = nil

	body := renderString(t, ProductsApp(v))
	assert.Contains(t, body, "No results found.")
	assert.Empty(t, attrsOf(t, body, "data-row"))

	v.Loading = true
	body = renderString(t, ProductsApp(v))
	assert.NotContains(t, body, "No results found.")
	assert.Contains(t, body, `aria-busy="true"`)
}

func TestProductsApp_Signals(t *testing.T) {
	body := renderString(t, ProductsApp(sampleView("table")))

	apps := attrsOf(t, body, "data-signals")
	require.Len(t, apps, 1)
	assert.JSONEq(t, `{"search":"lamp","priceMin":"","priceMax":"","rating":"","dateFrom":"","dateTo":""}`, apps[0]["data-signals"])
	assert.Equal(t, "q=lamp&sort=name", apps[0]["data-query"])
}

func TestProductsPage(t *testing.T) {
	v := sampleView("table")

	body := renderString(t, ProductsPage(v))
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<title>All Products - LeapGrid</title>")
	assert.Contains(t, body, `href="/static/app.css"`)
	assert.NotContains(t, body, "/reload")

	v.IsDev = true
	assert.Contains(t, renderString(t, ProductsPage(v)), "@get('/reload'")
}

func TestNotFound(t *testing.T) {
	body := renderString(t, NotFound("Page <missing>"))
	assert.Contains(t, body, "<h1>Page &lt;missing&gt;</h1>")
}

func TestPost(t *testing.T) {
	tests := []struct {
		path string
		kv   []string
		want string
	}{
		{"/products/filters/clear", nil, "@post('/products/filters/clear')"},
		{"/products/tab", []string{"name", "archived"}, "@post('/products/tab?name=archived')"},
		{"/products/filters/toggle", []string{"key", "tags", "value", "a&b c"}, "@post('/products/filters/toggle?key=tags&value=a%26b+c')"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, post(tt.path, tt.kv...))
	}
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "80%", pct(4))
	assert.Equal(t, "width: 240px", px(240))
	assert.Equal(t, "badge-default", badge(core.StatusActive))
	assert.Equal(t, "badge-secondary", badge(core.StatusArchived))
	assert.Equal(t, "badge-outline", badge(core.StatusDraft))
	assert.Equal(t, "short", excerpt("short"))
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz abc...", excerpt("abcdefghijklmnopqrstuvwxyz abcdefg"))
	assert.Equal(t, "1 item", plural(1, "item"))
	assert.Equal(t, "3 items", plural(3, "item"))
	assert.True(t, checkedAny([]Option{{Value: "a"}, {Value: "b", Checked: true}}))
	assert.False(t, checkedAny(nil))
}
