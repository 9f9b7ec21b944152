package derive

import (
	"fmt"
	"math"
	"strconv"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// maxExactInt is the largest integer a float64 represents exactly.
const maxExactInt = 1 << 53

// ToStarlark converts a record field value to a Starlark value.
// Integral numbers become ints so that str(stock) reads "5", not "5.0".
// Dates become ISO date strings.
func ToStarlark(v core.Value) starlark.Value {
	switch v.Kind {
	case core.KindString:
		return starlark.String(v.Str)
	case core.KindNumber:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < maxExactInt {
			return starlark.MakeInt64(int64(v.Num))
		}
		return starlark.Float(v.Num)
	case core.KindList:
		list := make([]starlark.Value, len(v.List))
		for i, s := range v.List {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list)
	case core.KindDate:
		return starlark.String(v.Date.Format(core.DateLayout))
	default:
		return starlark.None
	}
}

// FromStarlark converts an expression result back to a field value.
// Returns an error for values with no cell representation (functions, dicts).
func FromStarlark(v starlark.Value) (core.Value, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return core.Value{}, nil

	case starlark.String:
		return core.StringValue(string(val)), nil

	case starlark.Int:
		return core.NumberValue(float64(val.Float())), nil

	case starlark.Float:
		return core.NumberValue(float64(val)), nil

	case starlark.Bool:
		return core.StringValue(strconv.FormatBool(bool(val))), nil

	case *starlark.List:
		return listValue(val)

	case starlark.Tuple:
		return listValue(val)

	default:
		return core.Value{}, fmt.Errorf("unsupported result type: %s", v.Type())
	}
}

func listValue(seq starlark.Indexable) (core.Value, error) {
	out := make([]string, seq.Len())
	for i := range seq.Len() {
		switch item := seq.Index(i).(type) {
		case starlark.String:
			out[i] = string(item)
		case starlark.NoneType:
			out[i] = ""
		default:
			elem, err := FromStarlark(item)
			if err != nil {
				return core.Value{}, fmt.Errorf("list index %d: %w", i, err)
			}
			out[i] = elem.String()
		}
	}
	return core.ListValue(out), nil
}
