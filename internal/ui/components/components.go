// Package components renders the UI's HTML. The *.templ sources are compiled
// by `templ generate` into the *_templ.go files next to them; every component
// satisfies templ.Component so handlers can hand them to http responses and
// to datastar element patches alike.
package components

//go:generate templ generate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// post builds a datastar @post action. kv holds query key/value pairs.
func post(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	if len(q) == 0 {
		return "@post('" + path + "')"
	}
	return "@post('" + path + "?" + q.Encode() + "')"
}

func px(width int) string { return "width: " + strconv.Itoa(width) + "px" }

func pct(rating float64) string {
	return fmt.Sprintf("%.0f%%", rating/5*100)
}

func badge(status core.ProductStatus) string {
	switch status {
	case core.StatusActive:
		return "badge-default"
	case core.StatusArchived:
		return "badge-secondary"
	default:
		return "badge-outline"
	}
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= 30 {
		return s
	}
	return strings.TrimSpace(string(r[:30])) + "..."
}

func checkedAny(opts []Option) bool {
	for _, o := range opts {
		if o.Checked {
			return true
		}
	}
	return false
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
