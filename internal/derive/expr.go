// Package derive computes table columns from Starlark expressions over a
// record's fields.
//
// Every field named at compile time is bound as a global of the same name,
// so a column defined as
//
//	expr: round(price * stock, 2)
//
// reads the record's price and stock. Unknown names and syntax errors are
// reported by Compile; runtime failures are reported per record.
package derive

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// EvalError reports a failed compilation (empty RecordID) or a failed
// evaluation against one record.
type EvalError struct {
	Column   string
	RecordID string
	Err      error
}

func (e *EvalError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("column %q, record %q: %v", e.Column, e.RecordID, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Expr is a compiled derivation. It is safe for concurrent use.
type Expr struct {
	name   string
	src    string
	fields []string
	pool   *ThreadPool
}

var sharedPool = NewThreadPool(runtime.GOMAXPROCS(0))

// Compile checks src against the given record fields and returns an Expr
// named name.
func Compile(name, src string, fields []string) (*Expr, error) {
	if src == "" {
		return nil, &EvalError{Column: name, Err: errors.New("empty expression")}
	}
	env := Builtins()
	for _, f := range fields {
		if _, clash := env[f]; clash {
			return nil, &EvalError{Column: name, Err: fmt.Errorf("field %q shadows a builtin", f)}
		}
		env[f] = starlark.None
	}
	// Resolves every name without running the expression.
	if _, err := starlark.ExprFunc(name, src, env); err != nil { //nolint:staticcheck // SA1019: will migrate to ExprFuncOptions later
		return nil, &EvalError{Column: name, Err: err}
	}
	return &Expr{name: name, src: src, fields: append([]string(nil), fields...), pool: sharedPool}, nil
}

// Name is the column the expression computes.
func (e *Expr) Name() string { return e.name }

// Source is the expression text.
func (e *Expr) Source() string { return e.src }

// Eval computes the expression for rec.
func (e *Expr) Eval(rec core.Record) (core.Value, error) {
	globals := Builtins()
	for _, f := range e.fields {
		v, _ := rec.Field(f)
		globals[f] = ToStarlark(v)
	}

	thread := e.pool.Get(e.name)
	defer e.pool.Put(thread)

	result, err := starlark.Eval(thread, e.name, e.src, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return core.Value{}, &EvalError{Column: e.name, RecordID: rec.RecordID(), Err: err}
	}
	out, err := FromStarlark(result)
	if err != nil {
		return core.Value{}, &EvalError{Column: e.name, RecordID: rec.RecordID(), Err: err}
	}
	return out, nil
}

// EvalRows evaluates e for every row in parallel. Values of failed rows are
// null; their errors are joined in row order.
func EvalRows[T core.Record](ctx context.Context, e *Expr, rows []T) ([]core.Value, error) {
	out := make([]core.Value, len(rows))
	errs := make([]error, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, row := range rows {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i], errs[i] = e.Eval(row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, errors.Join(errs...)
}
