package derive

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Columns builds table columns from specs. Field specs map straight to the
// record field; expression specs are compiled against fields. Evaluation
// failures render as empty cells and are logged at debug level.
//
// Derived columns are never sortable: the data source sorts by record
// fields only.
func Columns[T core.Record](specs []table.Spec, fields []string, logger *slog.Logger) ([]table.Column[T], error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seen := make(map[string]bool, len(specs))
	cols := make([]table.Column[T], 0, len(specs))
	for _, spec := range specs {
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate column id %q", spec.ID)
		}
		seen[spec.ID] = true

		if !spec.Derived() {
			col, err := table.FromSpec[T](spec)
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
			continue
		}

		expr, err := Compile(spec.ID, spec.Expr, fields)
		if err != nil {
			return nil, err
		}
		if spec.Sortable {
			logger.Warn("derived columns cannot be sorted", slog.String("column", spec.ID))
		}
		cols = append(cols, table.Column[T]{
			ID:       spec.ID,
			Header:   spec.Header,
			Accessor: accessor[T](expr, logger),
			Width:    spec.Width,
			MinWidth: spec.MinWidth,
			MaxWidth: spec.MaxWidth,
		})
	}
	return cols, nil
}

func accessor[T core.Record](expr *Expr, logger *slog.Logger) func(T) core.Value {
	return func(row T) core.Value {
		v, err := expr.Eval(row)
		if err != nil {
			logger.Debug("derived column failed", slog.String("error", err.Error()))
			return core.Value{}
		}
		return v
	}
}

// ProductColumns builds product columns from specs, falling back to
// table.ProductSpecs when specs is empty, and attaches the product cell
// formatters.
func ProductColumns(specs []table.Spec, logger *slog.Logger) ([]table.Column[core.Product], error) {
	if len(specs) == 0 {
		specs = table.ProductSpecs
	}
	cols, err := Columns[core.Product](specs, core.ProductFields, logger)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		if cols[i].Accessor == nil && cols[i].Field == "" {
			cols[i].Cell = table.ProductCell(cols[i].ID)
		}
	}
	return cols, nil
}

// Derived returns the compiled expressions among specs, keyed by column id.
func Derived(specs []table.Spec, fields []string) (map[string]*Expr, error) {
	out := map[string]*Expr{}
	for _, spec := range specs {
		if !spec.Derived() {
			continue
		}
		expr, err := Compile(spec.ID, spec.Expr, fields)
		if err != nil {
			return nil, err
		}
		out[spec.ID] = expr
	}
	return out, nil
}
