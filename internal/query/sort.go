package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapgrid/pkg/core"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortStable sorts items in place by spec.Field. Equal keys keep their
// relative order, so repeated sorts over ties never reshuffle rows.
// An unknown field leaves the order untouched.
func SortStable[T core.Record](items []T, spec core.SortSpec, lang language.Tag) {
	if spec.Field == "" || len(items) < 2 {
		return
	}
	cmpFn := Comparator[T](spec, lang)
	slices.SortStableFunc(items, cmpFn)
}

// Comparator returns a three-way comparator for spec. Strings use
// locale-aware collation, numbers and dates compare by magnitude, and
// desc flips the sign. Values of different kinds order by kind, with records
// lacking the field treated as null and ranked first, so the order is total
// even when a field mixes kinds (an unparsable date stays a string).
//
// The returned function holds a collator and must not be shared across goroutines.
func Comparator[T core.Record](spec core.SortSpec, lang language.Tag) func(a, b T) int {
	col := collate.New(lang)
	sign := 1
	if spec.Direction == core.Desc {
		sign = -1
	}
	return func(a, b T) int {
		av, _ := a.Field(spec.Field)
		bv, _ := b.Field(spec.Field)
		return sign * compareValues(col, av, bv)
	}
}

func compareValues(col *collate.Collator, a, b core.Value) int {
	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}
	switch a.Kind {
	case core.KindString:
		return col.CompareString(a.Str, b.Str)
	case core.KindNumber:
		return cmp.Compare(a.Num, b.Num)
	case core.KindDate:
		return a.Date.Compare(b.Date)
	case core.KindList:
		return col.CompareString(strings.Join(a.List, ","), strings.Join(b.List, ","))
	default:
		return 0
	}
}
