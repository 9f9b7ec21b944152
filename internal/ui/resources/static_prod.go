//go:build !dev

package resources

import (
	"bytes"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

//go:embed static/*
var staticFS embed.FS

var (
	minifyOnce sync.Once
	minified   map[string][]byte
	builtAt    = time.Now()
)

// minifyAll minifies every embedded asset once. Assets that fail to minify are
// served as written.
func minifyAll() {
	minified = map[string][]byte{}
	entries, _ := fs.ReadDir(staticFS, "static")
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src, err := staticFS.ReadFile("static/" + e.Name())
		if err != nil {
			continue
		}
		out, err := Minify(e.Name(), src)
		if err != nil {
			slog.Warn("serving unminified asset", "asset", e.Name(), "error", err)
			out = src
		}
		minified[e.Name()] = out
	}
}

// Handler returns an HTTP handler for serving static files.
// In production mode, files are embedded in the binary and minified on first use.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		minifyOnce.Do(minifyAll)

		name := strings.TrimPrefix(r.URL.Path, "/static/")
		body, ok := minified[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		// Cache embedded static assets for 1 year (they never change in prod)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, name, builtAt, bytes.NewReader(body))
	})
}
