// Package viewstate converts a core.ViewState to and from a flat URL query
// string.
//
// Reserved keys (page, pageSize, sort, order, q, tab) carry the view; every
// other key is a filter. Multi-valued filters use an explicit array marker,
// "key[]=a&key[]=b", on both sides, so a single selected value stays an array
// after a round trip. Range filters split into "<key>Min"/"<key>Max" and date
// ranges into "<key>From"/"<key>To".
//
// Decode never fails: malformed reserved values fall back to their defaults,
// malformed typed filter values are dropped, and unknown keys pass through as
// scalar (or, when repeated, multi-select) filters.
package viewstate

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Reserved query keys.
const (
	KeyPage     = "page"
	KeyPageSize = "pageSize"
	KeySort     = "sort"
	KeyOrder    = "order"
	KeySearch   = "q"
	KeyTab      = "tab"
)

// ArraySuffix marks a multi-valued filter key.
const ArraySuffix = "[]"

// Suffixes used by range-like filters.
const (
	SuffixMin  = "Min"
	SuffixMax  = "Max"
	SuffixFrom = "From"
	SuffixTo   = "To"
)

var reservedOrder = []string{KeyPage, KeyPageSize, KeySort, KeyOrder, KeySearch, KeyTab}

// IsReserved reports whether key is one of the reserved view keys.
func IsReserved(key string) bool { return slices.Contains(reservedOrder, key) }

// reservedParams is the reserved half of the query string.
type reservedParams struct {
	Page     int    `url:"page"`
	PageSize int    `url:"pageSize"`
	Sort     string `url:"sort"`
	Order    string `url:"order"`
	Search   string `url:"q,omitempty"`
	Tab      string `url:"tab"`
}

// Codec encodes and decodes view states against a filter schema. Keys in the
// schema are parsed per their kind; keys outside it are untyped.
type Codec struct {
	schema core.FilterSchema
}

// New returns a codec for schema.
func New(schema core.FilterSchema) *Codec {
	return &Codec{schema: schema}
}

// Products is the codec for core.Product views.
var Products = New(core.ProductFilters)

// Encode returns the query parameters for v.
func (c *Codec) Encode(v core.ViewState) url.Values {
	values, err := query.Values(reservedParams{
		Page:     v.Page.Page,
		PageSize: v.Page.PageSize,
		Sort:     v.Sort.Field,
		Order:    string(v.Sort.Direction),
		Search:   v.Search,
		Tab:      v.Tab,
	})
	if err != nil {
		// only reachable for non-struct input
		values = url.Values{}
	}

	fs := v.Filters.Normalize()
	for _, key := range fs.Keys() {
		if IsReserved(key) {
			continue
		}
		c.encodeFilter(values, key, fs[key])
	}
	return values
}

func (c *Codec) encodeFilter(values url.Values, key string, f core.Filter) {
	switch t := f.(type) {
	case core.MultiSelect:
		values[key+ArraySuffix] = append([]string(nil), t...)
	case core.Range:
		if t.Min != nil {
			values.Set(key+SuffixMin, core.FormatNumber(*t.Min))
		}
		if t.Max != nil {
			values.Set(key+SuffixMax, core.FormatNumber(*t.Max))
		}
	case core.DateRange:
		if t.From != "" {
			values.Set(key+SuffixFrom, t.From)
		}
		if t.To != "" {
			values.Set(key+SuffixTo, t.To)
		}
	case core.Threshold:
		values.Set(key, core.FormatNumber(float64(t)))
	case core.Flag:
		values.Set(key, strconv.FormatBool(bool(t)))
	case core.Scalar:
		values.Set(key, string(t))
	}
}

// Owns reports whether key is spoken for by the codec itself: a reserved key,
// an array-marked key, or a bound key such as "priceMin" that decodes into a
// schema filter. Such keys cannot carry a filter of their own.
func (c *Codec) Owns(key string) bool {
	if IsReserved(key) || strings.HasSuffix(key, ArraySuffix) {
		return true
	}
	for _, spec := range c.schema {
		switch spec.Kind {
		case core.FilterRange:
			if key == spec.Key+SuffixMin || key == spec.Key+SuffixMax {
				return true
			}
		case core.FilterDateRange:
			if key == spec.Key+SuffixFrom || key == spec.Key+SuffixTo {
				return true
			}
		}
	}
	return false
}

// Accept checks that f can be stored under key and returns it in the form
// Decode produces, so the state survives a trip through the URL. Schema keys
// only take their own kind; other keys only take scalars and multi-selects.
// A nil filter is accepted as a removal.
func (c *Codec) Accept(key string, f core.Filter) (core.Filter, bool) {
	if key == "" || c.Owns(key) {
		return nil, false
	}
	if f == nil {
		return nil, true
	}
	spec, known := c.schema.Lookup(key)
	if known && spec.Kind != f.Kind() {
		return nil, false
	}
	switch t := f.(type) {
	case core.MultiSelect:
		out, _ := core.ParseFilter(core.FilterMultiSelect, t...)
		return out, true
	case core.Scalar:
		return t, true
	case core.Range:
		if !known || !finitePtr(t.Min) || !finitePtr(t.Max) {
			return nil, false
		}
		return t, true
	case core.Threshold:
		if !known || !finitePtr(core.Float(float64(t))) {
			return nil, false
		}
		return t, true
	case core.Flag:
		return t, known
	case core.DateRange:
		if !known {
			return nil, false
		}
		out := core.DateRange{From: date(t.From), To: date(t.To)}
		if (t.From != "" && out.From == "") || (t.To != "" && out.To == "") {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// AcceptAll runs every filter of fs through Accept and drops the rejects.
func (c *Codec) AcceptAll(fs core.FilterSet) core.FilterSet {
	out := make(core.FilterSet, len(fs))
	for key, f := range fs {
		if g, ok := c.Accept(key, f); ok && g != nil {
			out[key] = g
		}
	}
	return out.Normalize()
}

func finitePtr(v *float64) bool {
	return v == nil || (!math.IsNaN(*v) && !math.IsInf(*v, 0))
}

// EncodeQuery returns the canonical query string for v: reserved keys first in
// a fixed order, then filter keys sorted. Array markers are left unescaped.
func (c *Codec) EncodeQuery(v core.ViewState) string {
	values := c.Encode(v)

	keys := make([]string, 0, len(values))
	for k := range values {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var b strings.Builder
	write := func(k string) {
		for _, val := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(escapeKey(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	for _, k := range reservedOrder {
		write(k)
	}
	for _, k := range keys {
		write(k)
	}
	return b.String()
}

func escapeKey(k string) string {
	if base, ok := strings.CutSuffix(k, ArraySuffix); ok {
		return url.QueryEscape(base) + ArraySuffix
	}
	return url.QueryEscape(k)
}

// DecodeQuery parses raw (with or without a leading "?") into a view state.
// Pairs that fail to parse are skipped; the rest still apply.
func (c *Codec) DecodeQuery(raw string) core.ViewState {
	// ParseQuery keeps every pair it could parse alongside the first error.
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return c.Decode(values)
}

// Decode builds a view state from query parameters, applying defaults for
// missing or malformed reserved keys.
func (c *Codec) Decode(values url.Values) core.ViewState {
	v := core.DefaultViewState()

	if n, err := strconv.Atoi(values.Get(KeyPage)); err == nil && n >= 1 {
		v.Page.Page = n
	}
	if n, err := strconv.Atoi(values.Get(KeyPageSize)); err == nil && core.ValidPageSize(n) {
		v.Page.PageSize = n
	}
	if s := values.Get(KeySort); s != "" {
		v.Sort.Field = s
	}
	if d := core.SortDirection(values.Get(KeyOrder)); d.Valid() {
		v.Sort.Direction = d
	}
	v.Search = values.Get(KeySearch)
	if t := values.Get(KeyTab); slices.Contains(core.Tabs, t) {
		v.Tab = t
	}

	consumed := make(map[string]bool, len(values))
	for _, k := range reservedOrder {
		consumed[k] = true
	}

	fs := core.FilterSet{}
	for _, spec := range c.schema {
		if IsReserved(spec.Key) {
			continue
		}
		if f, ok := c.decodeTyped(values, spec, consumed); ok {
			fs[spec.Key] = f
		}
	}

	for key, vals := range values {
		if consumed[key] {
			continue
		}
		base, isArray := strings.CutSuffix(key, ArraySuffix)
		if base == "" || IsReserved(base) {
			continue
		}
		if _, known := c.schema.Lookup(base); known {
			continue
		}
		if !isArray && len(values[key+ArraySuffix]) > 0 {
			// merged when the array form is visited
			continue
		}
		if isArray || len(vals) > 1 {
			all := append(append([]string(nil), values[base+ArraySuffix]...), untypedBare(values, base, consumed)...)
			f, _ := core.ParseFilter(core.FilterMultiSelect, all...)
			fs[base] = f
			continue
		}
		fs[base] = core.Scalar(vals[0])
	}

	v.Filters = fs.Normalize()
	return v
}

// untypedBare returns the bare values of base unless another rule owns them.
func untypedBare(values url.Values, base string, consumed map[string]bool) []string {
	if consumed[base] {
		return nil
	}
	return values[base]
}

func (c *Codec) decodeTyped(values url.Values, spec core.FilterSpec, consumed map[string]bool) (core.Filter, bool) {
	key := spec.Key
	switch spec.Kind {
	case core.FilterMultiSelect:
		consumed[key] = true
		consumed[key+ArraySuffix] = true
		raw := append(append([]string(nil), values[key+ArraySuffix]...), values[key]...)
		if len(raw) == 0 {
			return nil, false
		}
		f, err := core.ParseFilter(core.FilterMultiSelect, raw...)
		return f, err == nil

	case core.FilterRange:
		consumed[key+SuffixMin] = true
		consumed[key+SuffixMax] = true
		rng := core.Range{
			Min: finite(values.Get(key + SuffixMin)),
			Max: finite(values.Get(key + SuffixMax)),
		}
		return rng, rng.Min != nil || rng.Max != nil

	case core.FilterDateRange:
		consumed[key+SuffixFrom] = true
		consumed[key+SuffixTo] = true
		dr := core.DateRange{
			From: date(values.Get(key + SuffixFrom)),
			To:   date(values.Get(key + SuffixTo)),
		}
		return dr, dr.From != "" || dr.To != ""

	case core.FilterThreshold:
		consumed[key] = true
		if n := finite(values.Get(key)); n != nil {
			return core.Threshold(*n), true
		}
		return nil, false

	case core.FilterFlag:
		consumed[key] = true
		if !values.Has(key) {
			return nil, false
		}
		f, err := core.ParseFilter(core.FilterFlag, values.Get(key))
		return f, err == nil

	case core.FilterScalar:
		consumed[key] = true
		if !values.Has(key) {
			return nil, false
		}
		return core.Scalar(values.Get(key)), true
	}
	return nil, false
}

// finite parses a finite number; anything else is treated as absent.
func finite(s string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := core.ParseNumber(s)
	if err != nil {
		return nil
	}
	return core.Float(n)
}

func date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return ""
	}
	return d.Format(core.DateLayout)
}

// Encode encodes v with the Products codec.
func Encode(v core.ViewState) url.Values { return Products.Encode(v) }

// EncodeQuery encodes v with the Products codec.
func EncodeQuery(v core.ViewState) string { return Products.EncodeQuery(v) }

// Decode decodes values with the Products codec.
func Decode(values url.Values) core.ViewState { return Products.Decode(values) }

// DecodeQuery decodes raw with the Products codec.
func DecodeQuery(raw string) core.ViewState { return Products.DecodeQuery(raw) }
