// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/leapstack-labs/leapgrid/internal/derive"
	"github.com/leapstack-labs/leapgrid/internal/source"
	"github.com/leapstack-labs/leapgrid/internal/testutil"
	"github.com/leapstack-labs/leapgrid/internal/ui/session"
	"github.com/leapstack-labs/leapgrid/internal/workspace"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Products     []core.Product
	Source       *source.Memory[core.Product]
	Sessions     *session.Manager
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates an in-memory catalog of n fixture products with no
// simulated latency, and a session manager whose workspaces browse it.
func SetupTestFixture(t *testing.T, n int) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	products := testutil.Products(n)
	src := source.NewMemory(products, source.MemoryConfig{Logger: logger})
	src.Replace(products, "fixture")

	columns, err := derive.ProductColumns(nil, logger)
	require.NoError(t, err)

	store := NewTestSessionStore()
	factory := func(initial core.ViewState) *workspace.Workspace {
		return workspace.New(workspace.Config{
			Source:     src,
			Dataset:    src.Version,
			Columns:    columns,
			Initial:    &initial,
			ClampPages: true,
			Logger:     logger,
		})
	}
	manager := session.NewManager(store, factory, 0, logger)
	t.Cleanup(manager.Close)

	return &TestFixture{
		Products:     products,
		Source:       src,
		Sessions:     manager,
		SessionStore: store,
	}
}

// RequestWithTimeout wraps a request with a context timeout. The context is
// cancelled when the test ends if the timeout has not fired by then.
func RequestWithTimeout(t *testing.T, r *http.Request, timeout time.Duration) *http.Request {
	t.Helper()
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	t.Cleanup(cancel)
	return r.WithContext(ctx)
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// ParseHTML parses a rendered page or fragment.
func ParseHTML(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

// FindAll returns every element under n carrying attribute attr.
func FindAll(n *html.Node, attr string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := Attr(n, attr); ok {
				out = append(out, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
