package derive

import (
	"fmt"
	"math"

	"go.starlark.net/starlark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Builtins returns the functions available to every expression on top of the
// Starlark universe (len, str, min, max, ...).
//
//	round(x, digits=0)     rounds half away from zero
//	days_between(a, b)     whole days from ISO date a to ISO date b
//	money(x)               formats x as "$1,234.50"
func Builtins() starlark.StringDict {
	return starlark.StringDict{
		"round":        starlark.NewBuiltin("round", builtinRound),
		"days_between": starlark.NewBuiltin("days_between", builtinDaysBetween),
		"money":        starlark.NewBuiltin("money", builtinMoney),
	}
}

func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		x      starlark.Value
		digits int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &x, "digits?", &digits); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(x)
	if !ok {
		return nil, fmt.Errorf("%s: want number, got %s", b.Name(), x.Type())
	}
	scale := math.Pow(10, float64(digits))
	return starlark.Float(math.Round(f*scale) / scale), nil
}

func builtinDaysBetween(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var from, to string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "a", &from, "b", &to); err != nil {
		return nil, err
	}
	a, err := core.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	z, err := core.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	return starlark.MakeInt(int(z.Sub(a).Hours() / 24)), nil
}

func builtinMoney(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(x)
	if !ok {
		return nil, fmt.Errorf("%s: want number, got %s", b.Name(), x.Type())
	}
	return starlark.String(formatMoney(f)), nil
}

func formatMoney(f float64) string {
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + message.NewPrinter(language.English).Sprintf("$%.2f", f)
}
