package derive

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapgrid/internal/table"
	"github.com/leapstack-labs/leapgrid/internal/testutil"
	"github.com/leapstack-labs/leapgrid/pkg/core"
)

var lamp = core.Product{
	ID:        "P1",
	Name:      "Desk Lamp",
	Category:  "Home & Garden",
	Price:     24.5,
	Stock:     4,
	Rating:    4.2,
	DateAdded: "2024-03-01",
	Tags:      []string{"Sale", "New"},
	Status:    core.StatusActive,
}

// =============================================================================
// Expressions
// =============================================================================

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want core.Value
	}{
		{expr: "price * stock", want: core.NumberValue(98)},
		{expr: "name.upper()", want: core.StringValue("DESK LAMP")},
		{expr: "len(tags)", want: core.NumberValue(2)},
		{expr: `"Sale" in tags`, want: core.StringValue("true")},
		{expr: "dateAdded", want: core.StringValue("2024-03-01")},
		{expr: "str(stock)", want: core.StringValue("4")},
		{expr: "round(rating * 2, 1)", want: core.NumberValue(8.4)},
		{expr: "days_between('2024-01-01', dateAdded)", want: core.NumberValue(60)},
		{expr: "money(price * 100)", want: core.StringValue("$2,450.00")},
		{expr: "[t.lower() for t in tags]", want: core.ListValue([]string{"sale", "new"})},
		{expr: "'low' if stock < 10 else 'ok'", want: core.StringValue("low")},
		{expr: "None", want: core.Value{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := Compile("derived", tt.expr, core.ProductFields)
			require.NoError(t, err)

			got, err := expr.Eval(lamp)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		errMsg string
	}{
		{name: "empty", expr: "", errMsg: "empty expression"},
		{name: "syntax", expr: "price +", errMsg: `column "bad"`},
		{name: "unknown name", expr: "cost * 2", errMsg: "cost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("bad", tt.expr, core.ProductFields)
			require.Error(t, err)

			var evalErr *EvalError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, "bad", evalErr.Column)
			assert.Empty(t, evalErr.RecordID)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := Compile("bad", "1", []string{"round"})
	assert.ErrorContains(t, err, "shadows a builtin")
}

func TestEval_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "division by zero", expr: "stock / (stock - 4)"},
		{name: "unsupported result", expr: "{'a': 1}"},
		{name: "bad builtin argument", expr: "round(name)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Compile("calc", tt.expr, core.ProductFields)
			require.NoError(t, err)

			_, err = expr.Eval(lamp)
			var evalErr *EvalError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, "P1", evalErr.RecordID)
		})
	}
}

func TestEvalRows(t *testing.T) {
	rows := testutil.Products(64)

	expr, err := Compile("next", "stock + 1", core.ProductFields)
	require.NoError(t, err)

	got, err := EvalRows(context.Background(), expr, rows)
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i, p := range rows {
		assert.Equal(t, core.NumberValue(float64(p.Stock+1)), got[i])
	}
}

func TestEvalRows_JoinsFailures(t *testing.T) {
	rows := testutil.Products(10) // the first fixture has no stock

	expr, err := Compile("per_unit", "price / stock", core.ProductFields)
	require.NoError(t, err)

	got, err := EvalRows(context.Background(), expr, rows)
	require.Error(t, err)

	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, rows[0].ID, evalErr.RecordID)
	assert.Equal(t, core.Value{}, got[0])
	assert.Equal(t, core.KindNumber, got[1].Kind)
}

func TestEvalRows_Canceled(t *testing.T) {
	expr, err := Compile("id", "id", core.ProductFields)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = EvalRows(ctx, expr, testutil.Products(5))
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Columns
// =============================================================================

func TestColumns(t *testing.T) {
	specs := []table.Spec{
		{ID: "name", Sortable: true},
		{ID: "value", Header: "Stock Value", Expr: "round(price * stock, 2)", Sortable: true},
	}

	cols, err := Columns[core.Product](specs, core.ProductFields, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.True(t, cols[0].Sortable)
	assert.False(t, cols[1].Sortable, "derived columns are never sortable")
	assert.Equal(t, "Stock Value", cols[1].Title())
	assert.Equal(t, "98", cols[1].Render(lamp))
}

func TestColumns_Errors(t *testing.T) {
	_, err := Columns[core.Product]([]table.Spec{{ID: "a"}, {ID: "a"}}, core.ProductFields, nil)
	assert.ErrorContains(t, err, "duplicate column id")

	_, err = Columns[core.Product]([]table.Spec{{ID: "x", Expr: "nope"}}, core.ProductFields, nil)
	var evalErr *EvalError
	assert.ErrorAs(t, err, &evalErr)
}

func TestColumns_FailedEvalRendersEmpty(t *testing.T) {
	cols, err := Columns[core.Product]([]table.Spec{{ID: "bad", Expr: "price / 0"}}, core.ProductFields, nil)
	require.NoError(t, err)
	assert.Equal(t, "", cols[0].Render(lamp))
}

func TestProductColumns_Defaults(t *testing.T) {
	cols, err := ProductColumns(nil, nil)
	require.NoError(t, err)
	require.Len(t, cols, len(table.ProductSpecs))

	byID := map[string]table.Column[core.Product]{}
	for _, c := range cols {
		byID[c.ID] = c
	}
	assert.Equal(t, "Product", byID["name"].Title())
	assert.Equal(t, "Date Added", byID["dateAdded"].Title())
	assert.Equal(t, "$24.5", byID["price"].Render(lamp))
}

func TestDerived(t *testing.T) {
	got, err := Derived([]table.Spec{{ID: "name"}, {ID: "twice", Expr: "price * 2"}}, core.ProductFields)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "price * 2", got["twice"].Source())
}

// =============================================================================
// Thread pool
// =============================================================================

func TestThreadPool_GetPut(t *testing.T) {
	pool := NewThreadPool(5)

	thread := pool.Get("test1")
	require.NotNil(t, thread)
	assert.Equal(t, "test1", thread.Name)

	pool.Put(thread)
	assert.Equal(t, 1, pool.Size())

	thread2 := pool.Get("test2")
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, "test2", thread2.Name)
}

func TestThreadPool_MaxSize(t *testing.T) {
	pool := NewThreadPool(2)

	threads := make([]*starlark.Thread, 3)
	for i := range threads {
		threads[i] = pool.Get("test")
	}
	for _, thread := range threads {
		pool.Put(thread)
	}

	assert.Equal(t, 2, pool.Size())
}

func TestThreadPool_Concurrent(t *testing.T) {
	pool := NewThreadPool(4)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Put(pool.Get("worker"))
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, pool.Size(), 4)
}
