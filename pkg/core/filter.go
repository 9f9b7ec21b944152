package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FilterKind identifies the variant of a Filter.
type FilterKind int

// Filter kinds.
const (
	FilterMultiSelect FilterKind = iota
	FilterRange
	FilterThreshold
	FilterFlag
	FilterDateRange
	FilterScalar
)

func (k FilterKind) String() string {
	switch k {
	case FilterMultiSelect:
		return "multi-select"
	case FilterRange:
		return "range"
	case FilterThreshold:
		return "threshold"
	case FilterFlag:
		return "flag"
	case FilterDateRange:
		return "date-range"
	case FilterScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Filter is a closed set of constraint values. The concrete types are
// MultiSelect, Range, Threshold, Flag, DateRange and Scalar.
type Filter interface {
	Kind() FilterKind
	String() string
	isFilter()
}

// MultiSelect matches when the field value is one of the values (or, for list
// fields, when any element overlaps).
type MultiSelect []string

// Range is an inclusive numeric range; a nil bound is open.
type Range struct {
	Min *float64
	Max *float64
}

// Threshold matches field values greater than or equal to it.
type Threshold float64

// Flag restricts to records whose field is "present" (non-zero, non-empty) when true.
type Flag bool

// DateRange is an inclusive calendar-date range in DateLayout; an empty bound is open.
type DateRange struct {
	From string
	To   string
}

// Scalar is a single opaque string value.
type Scalar string

func (MultiSelect) Kind() FilterKind { return FilterMultiSelect }
func (Range) Kind() FilterKind       { return FilterRange }
func (Threshold) Kind() FilterKind   { return FilterThreshold }
func (Flag) Kind() FilterKind        { return FilterFlag }
func (DateRange) Kind() FilterKind   { return FilterDateRange }
func (Scalar) Kind() FilterKind      { return FilterScalar }

func (MultiSelect) isFilter() {}
func (Range) isFilter()       {}
func (Threshold) isFilter()   {}
func (Flag) isFilter()        {}
func (DateRange) isFilter()   {}
func (Scalar) isFilter()      {}

func (m MultiSelect) String() string { return strings.Join(m, ", ") }

func (r Range) String() string {
	return formatBound(r.Min) + " – " + formatBound(r.Max)
}

func (t Threshold) String() string { return ">= " + FormatNumber(float64(t)) }

func (f Flag) String() string { return strconv.FormatBool(bool(f)) }

func (d DateRange) String() string {
	from, to := d.From, d.To
	if from == "" {
		from = "…"
	}
	if to == "" {
		to = "…"
	}
	return from + " – " + to
}

func (s Scalar) String() string { return string(s) }

// Contains reports whether v is one of the selected values.
func (m MultiSelect) Contains(v string) bool {
	for _, s := range m {
		if s == v {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for building Range bounds.
func Float(v float64) *float64 { return &v }

// ParseNumber parses a finite number. NaN and infinities are rejected since
// they cannot be written back into a query string.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q: not finite", s)
	}
	return v, nil
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatBound(b *float64) string {
	if b == nil {
		return "…"
	}
	return FormatNumber(*b)
}

// FilterSet maps filter keys to their active constraint. A missing key means
// "no constraint".
type FilterSet map[string]Filter

// Normalize returns a copy without empty constraints: empty multi-selects,
// ranges with no bounds and date ranges with no bounds are equivalent to absence.
func (fs FilterSet) Normalize() FilterSet {
	out := make(FilterSet, len(fs))
	for k, f := range fs {
		if f == nil || isEmptyFilter(f) {
			continue
		}
		out[k] = f
	}
	return out
}

func isEmptyFilter(f Filter) bool {
	switch v := f.(type) {
	case MultiSelect:
		return len(v) == 0
	case Range:
		return v.Min == nil && v.Max == nil
	case DateRange:
		return v.From == "" && v.To == ""
	default:
		return false
	}
}

// Clone returns a shallow copy; filter values are treated as immutable.
func (fs FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(fs))
	for k, f := range fs {
		out[k] = f
	}
	return out
}

// Keys returns the filter keys in sorted order.
func (fs FilterSet) Keys() []string {
	keys := make([]string, 0, len(fs))
	for k := range fs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FilterSpec describes a known filter key: its variant and the record field it constrains.
type FilterSpec struct {
	Key   string
	Kind  FilterKind
	Field string
}

// FilterSchema is the ordered list of filters the query engine applies.
// Order is significant: predicates run in schema order.
type FilterSchema []FilterSpec

// Lookup finds the spec for key.
func (s FilterSchema) Lookup(key string) (FilterSpec, bool) {
	for _, spec := range s {
		if spec.Key == key {
			return spec, true
		}
	}
	return FilterSpec{}, false
}

// ProductFilters is the filter schema for Product records:
// status → category → price → rating → tags → inStock → date.
var ProductFilters = FilterSchema{
	{Key: "status", Kind: FilterMultiSelect, Field: "status"},
	{Key: "category", Kind: FilterMultiSelect, Field: "category"},
	{Key: "price", Kind: FilterRange, Field: "price"},
	{Key: "rating", Kind: FilterThreshold, Field: "rating"},
	{Key: "tags", Kind: FilterMultiSelect, Field: "tags"},
	{Key: "inStock", Kind: FilterFlag, Field: "stock"},
	{Key: "date", Kind: FilterDateRange, Field: "dateAdded"},
}

// ParseFilter builds a Filter of the given kind from raw input.
// Range and DateRange take up to two inputs (lower, upper); an empty input
// leaves that bound open. Invalid numbers or dates return an error.
func ParseFilter(kind FilterKind, raw ...string) (Filter, error) {
	switch kind {
	case FilterMultiSelect:
		vals := make(MultiSelect, 0, len(raw))
		for _, r := range raw {
			if r = strings.TrimSpace(r); r != "" {
				vals = append(vals, r)
			}
		}
		return vals, nil
	case FilterRange:
		var rng Range
		bounds := []**float64{&rng.Min, &rng.Max}
		for i := 0; i < len(raw) && i < 2; i++ {
			s := strings.TrimSpace(raw[i])
			if s == "" {
				continue
			}
			v, err := ParseNumber(s)
			if err != nil {
				return nil, err
			}
			*bounds[i] = Float(v)
		}
		return rng, nil
	case FilterThreshold:
		if len(raw) == 0 {
			return nil, fmt.Errorf("threshold requires a value")
		}
		v, err := ParseNumber(raw[0])
		if err != nil {
			return nil, err
		}
		return Threshold(v), nil
	case FilterFlag:
		if len(raw) == 0 {
			return nil, fmt.Errorf("flag requires a value")
		}
		b, err := strconv.ParseBool(strings.TrimSpace(raw[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", raw[0], err)
		}
		return Flag(b), nil
	case FilterDateRange:
		var dr DateRange
		bounds := []*string{&dr.From, &dr.To}
		for i := 0; i < len(raw) && i < 2; i++ {
			s := strings.TrimSpace(raw[i])
			if s == "" {
				continue
			}
			d, err := ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("invalid date %q: %w", s, err)
			}
			*bounds[i] = d.Format(DateLayout)
		}
		return dr, nil
	case FilterScalar:
		if len(raw) == 0 {
			return Scalar(""), nil
		}
		return Scalar(raw[0]), nil
	default:
		return nil, fmt.Errorf("unknown filter kind %d", kind)
	}
}
