package table

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Spec is the configuration form of a column. Exactly one of Field and Expr
// selects the value; an empty Field defaults to the id. Expr columns are
// built by the derive package.
type Spec struct {
	ID       string `koanf:"id" validate:"required"`
	Header   string `koanf:"header"`
	Field    string `koanf:"field"`
	Expr     string `koanf:"expr"`
	Sortable bool   `koanf:"sortable"`
	Width    int    `koanf:"width" validate:"gte=0"`
	MinWidth int    `koanf:"min_width" validate:"gte=0"`
	MaxWidth int    `koanf:"max_width" validate:"gte=0"`
}

// Derived reports whether the column is computed from an expression.
func (s Spec) Derived() bool { return s.Expr != "" }

// ProductSpecs is the default product column set.
var ProductSpecs = []Spec{
	{ID: "name", Header: "Product", Sortable: true, Width: 240},
	{ID: "category", Sortable: true},
	{ID: "price", Sortable: true},
	{ID: "stock", Sortable: true, Width: 110},
	{ID: "rating", Sortable: true},
	{ID: "status", Sortable: true, Width: 120},
	{ID: "dateAdded", Sortable: true},
}

// FromSpec builds a field column from s. Derived specs are rejected.
func FromSpec[T core.Record](s Spec) (Column[T], error) {
	if s.ID == "" {
		return Column[T]{}, fmt.Errorf("column id is required")
	}
	if s.Derived() {
		return Column[T]{}, fmt.Errorf("column %q is derived from an expression", s.ID)
	}
	return Column[T]{
		ID:       s.ID,
		Header:   s.Header,
		Field:    s.Field,
		Sortable: s.Sortable,
		Width:    s.Width,
		MinWidth: s.MinWidth,
		MaxWidth: s.MaxWidth,
	}, nil
}

// ProductCell formats the product columns whose raw value reads poorly.
func ProductCell(columnID string) func(core.Product) string {
	switch columnID {
	case "price":
		return func(p core.Product) string { return "$" + core.FormatNumber(p.Price) }
	case "tags":
		return func(p core.Product) string { return strings.Join(p.Tags, ", ") }
	default:
		return nil
	}
}
