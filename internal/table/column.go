package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Width limits, in pixels.
const (
	DefaultWidth = 150
	MinWidth     = 100
)

// Column describes one table column. Columns are supplied by the caller in
// display order; the controller never infers them from data.
type Column[T core.Record] struct {
	ID     string
	Header string
	// Field is the record field read when Accessor is nil. Defaults to ID.
	Field string
	// Accessor derives the cell value from the whole record.
	Accessor func(T) core.Value
	// Cell renders the cell; when nil the accessor value is stringified.
	Cell     func(T) string
	Sortable bool
	Width    int
	MinWidth int
	// MaxWidth of zero means unbounded.
	MaxWidth int
}

// Title returns the header text, deriving one from the id when unset.
func (c Column[T]) Title() string {
	if c.Header != "" {
		return c.Header
	}
	return Humanize(c.ID)
}

// Value reads the column's value from row.
func (c Column[T]) Value(row T) core.Value {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	field := c.Field
	if field == "" {
		field = c.ID
	}
	v, _ := row.Field(field)
	return v
}

// Render returns the cell text for row.
func (c Column[T]) Render(row T) string {
	if c.Cell != nil {
		return c.Cell(row)
	}
	return c.Value(row).String()
}

// SortField is the field name sent to the data source when sorting by c.
func (c Column[T]) SortField() string {
	if c.Field != "" {
		return c.Field
	}
	return c.ID
}

func (c Column[T]) minWidth() int { return max(c.MinWidth, MinWidth) }

func (c Column[T]) clamp(w int) int {
	w = max(w, c.minWidth())
	if c.MaxWidth > 0 && c.MaxWidth >= c.minWidth() {
		w = min(w, c.MaxWidth)
	}
	return w
}

func (c Column[T]) initialWidth() int {
	w := c.Width
	if w <= 0 {
		w = DefaultWidth
	}
	return c.clamp(w)
}

// Humanize turns a camelCase or snake_case identifier into a title:
// "dateAdded" becomes "Date Added".
func Humanize(id string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range id {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(b.String()), " "))
}
