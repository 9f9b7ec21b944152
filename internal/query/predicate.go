package query

import (
	"math"
	"time"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// PredicateFunc tests one record field against a filter.
type PredicateFunc func(rec core.Record, field string) bool

// Predicate returns the predicate for a filter variant.
func Predicate(f core.Filter) PredicateFunc {
	switch v := f.(type) {
	case core.MultiSelect:
		return func(rec core.Record, field string) bool { return matchMultiSelect(rec, field, v) }
	case core.Range:
		return func(rec core.Record, field string) bool { return matchRange(rec, field, v) }
	case core.Threshold:
		return func(rec core.Record, field string) bool {
			n, ok := numberField(rec, field)
			return ok && n >= float64(v)
		}
	case core.Flag:
		return func(rec core.Record, field string) bool { return !bool(v) || present(rec, field) }
	case core.DateRange:
		return func(rec core.Record, field string) bool { return matchDateRange(rec, field, v) }
	case core.Scalar:
		return func(rec core.Record, field string) bool {
			fv, ok := rec.Field(field)
			return ok && fv.String() == string(v)
		}
	default:
		return func(core.Record, string) bool { return true }
	}
}

func matchMultiSelect(rec core.Record, field string, want core.MultiSelect) bool {
	fv, ok := rec.Field(field)
	if !ok {
		return false
	}
	if fv.Kind == core.KindList {
		for _, el := range fv.List {
			if want.Contains(el) {
				return true
			}
		}
		return false
	}
	return want.Contains(fv.String())
}

func matchRange(rec core.Record, field string, r core.Range) bool {
	n, ok := numberField(rec, field)
	if !ok {
		return false
	}
	lo, hi := 0.0, math.Inf(1)
	if r.Min != nil {
		lo = *r.Min
	}
	if r.Max != nil {
		hi = *r.Max
	}
	return n >= lo && n <= hi
}

func matchDateRange(rec core.Record, field string, r core.DateRange) bool {
	fv, ok := rec.Field(field)
	if !ok || fv.Kind != core.KindDate {
		return false
	}
	d := fv.Date
	if r.From != "" {
		from, err := time.Parse(core.DateLayout, r.From)
		if err == nil && d.Before(from) {
			return false
		}
	}
	if r.To != "" {
		to, err := time.Parse(core.DateLayout, r.To)
		if err == nil && d.After(to) {
			return false
		}
	}
	return true
}

func numberField(rec core.Record, field string) (float64, bool) {
	fv, ok := rec.Field(field)
	if !ok || fv.Kind != core.KindNumber {
		return 0, false
	}
	return fv.Num, true
}

func present(rec core.Record, field string) bool {
	fv, ok := rec.Field(field)
	if !ok {
		return false
	}
	switch fv.Kind {
	case core.KindNumber:
		return fv.Num > 0
	case core.KindString:
		return fv.Str != ""
	case core.KindList:
		return len(fv.List) > 0
	case core.KindDate:
		return !fv.Date.IsZero()
	default:
		return false
	}
}
