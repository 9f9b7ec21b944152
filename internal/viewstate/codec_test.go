package viewstate

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func state(mod func(*core.ViewState)) core.ViewState {
	v := core.DefaultViewState()
	mod(&v)
	return v
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   core.ViewState
	}{
		{
			name: "defaults without filters",
			in:   core.DefaultViewState(),
		},
		{
			name: "one scalar filter",
			in: state(func(v *core.ViewState) {
				v.Filters["brand"] = core.Scalar("acme")
			}),
		},
		{
			name: "array filter with three values",
			in: state(func(v *core.ViewState) {
				v.Filters["category"] = core.MultiSelect{"Books", "Home & Garden", "Toys"}
			}),
		},
		{
			name: "array filter with a single value stays an array",
			in: state(func(v *core.ViewState) {
				v.Filters["tags"] = core.MultiSelect{"Sale"}
			}),
		},
		{
			name: "unknown array filter with a single value",
			in: state(func(v *core.ViewState) {
				v.Filters["color"] = core.MultiSelect{"red"}
			}),
		},
		{
			name: "all reserved keys non-default",
			in: core.ViewState{
				Filters: core.FilterSet{},
				Search:  "red shoes & more",
				Sort:    core.SortSpec{Field: "price", Direction: core.Desc},
				Page:    core.PageRequest{Page: 7, PageSize: 50},
				Tab:     "archived",
			},
		},
		{
			name: "every typed filter",
			in: core.ViewState{
				Filters: core.FilterSet{
					"status":   core.MultiSelect{"active", "draft"},
					"category": core.MultiSelect{"Electronics"},
					"price":    core.Range{Min: core.Float(12.5), Max: core.Float(99)},
					"rating":   core.Threshold(3.5),
					"tags":     core.MultiSelect{"New", "Best Seller"},
					"inStock":  core.Flag(true),
					"date":     core.DateRange{From: "2024-02-01", To: "2024-03-31"},
					"note":     core.Scalar("a=b&c"),
				},
				Search: "product",
				Sort:   core.SortSpec{Field: "dateAdded", Direction: core.Asc},
				Page:   core.PageRequest{Page: 2, PageSize: 100},
				Tab:    "active",
			},
		},
		{
			name: "open-ended ranges",
			in: state(func(v *core.ViewState) {
				v.Filters["price"] = core.Range{Max: core.Float(0.25)}
				v.Filters["date"] = core.DateRange{From: "2024-06-01"}
				v.Filters["inStock"] = core.Flag(false)
			}),
		},
		{
			name: "empty scalar value",
			in: state(func(v *core.ViewState) {
				v.Filters["ref"] = core.Scalar("")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, Decode(Encode(tt.in)), "via url.Values")
			assert.Equal(t, tt.in, DecodeQuery(EncodeQuery(tt.in)), "via query string")
		})
	}
}

func TestEncodeQuery_Canonical(t *testing.T) {
	v := state(func(v *core.ViewState) {
		v.Filters["category"] = core.MultiSelect{"Books", "Toys"}
		v.Filters["price"] = core.Range{Min: core.Float(10)}
	})

	assert.Equal(t,
		"page=1&pageSize=10&sort=name&order=asc&tab=all&category[]=Books&category[]=Toys&priceMin=10",
		EncodeQuery(v))

	v.Search = "blue mug"
	assert.Contains(t, EncodeQuery(v), "&q=blue+mug&")
}

func TestEncode_DropsEmptyFilters(t *testing.T) {
	v := state(func(v *core.ViewState) {
		v.Filters["category"] = core.MultiSelect{}
		v.Filters["price"] = core.Range{}
		v.Filters["date"] = core.DateRange{}
	})

	values := Encode(v)
	for _, key := range []string{"category[]", "priceMin", "priceMax", "dateFrom", "dateTo"} {
		assert.False(t, values.Has(key), key)
	}
	assert.Equal(t, core.DefaultViewState(), Decode(values))
}

func TestDecode_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "question mark only", query: "?"},
		{name: "invalid page", query: "page=abc"},
		{name: "zero page", query: "page=0"},
		{name: "negative page", query: "page=-4"},
		{name: "unsupported page size", query: "pageSize=15"},
		{name: "invalid order", query: "order=sideways"},
		{name: "unknown tab", query: "tab=deleted"},
		{name: "empty sort", query: "sort="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, core.DefaultViewState(), DecodeQuery(tt.query))
		})
	}
}

func TestDecode_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.FilterSet
	}{
		{
			name:  "bare value on array key",
			query: "category=Books",
			want:  core.FilterSet{"category": core.MultiSelect{"Books"}},
		},
		{
			name:  "bare and marked values merge",
			query: "category[]=Books&category=Toys",
			want:  core.FilterSet{"category": core.MultiSelect{"Books", "Toys"}},
		},
		{
			name:  "unknown repeated key becomes array",
			query: "color=red&color=blue",
			want:  core.FilterSet{"color": core.MultiSelect{"red", "blue"}},
		},
		{
			name:  "unknown key passes through as scalar",
			query: "utm_source=newsletter",
			want:  core.FilterSet{"utm_source": core.Scalar("newsletter")},
		},
		{
			name:  "invalid numbers dropped",
			query: "priceMin=cheap&priceMax=40&rating=lots",
			want:  core.FilterSet{"price": core.Range{Max: core.Float(40)}},
		},
		{
			name:  "non-finite numbers dropped",
			query: "priceMin=NaN&rating=Inf",
			want:  core.FilterSet{},
		},
		{
			name:  "invalid date dropped",
			query: "dateFrom=yesterday&dateTo=2024-12-31",
			want:  core.FilterSet{"date": core.DateRange{To: "2024-12-31"}},
		},
		{
			name:  "timestamp truncated to date",
			query: "dateFrom=2024-05-06T10:00:00Z",
			want:  core.FilterSet{"date": core.DateRange{From: "2024-05-06"}},
		},
		{
			name:  "invalid flag dropped",
			query: "inStock=maybe",
			want:  core.FilterSet{},
		},
		{
			name:  "blank array values dropped",
			query: "tags[]=&tags[]=%20",
			want:  core.FilterSet{},
		},
		{
			name:  "array marker on reserved key ignored",
			query: "page[]=3",
			want:  core.FilterSet{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeQuery(tt.query).Filters)
		})
	}
}

func TestDecode_MalformedNeverFails(t *testing.T) {
	inputs := []string{
		"%",
		"page=%zz&sort=price",
		"&&&=&=x",
		"[]=1",
		"a[]",
		";;;",
		"priceMin=1e400",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			require.NotPanics(t, func() {
				v := DecodeQuery(raw)
				assert.GreaterOrEqual(t, v.Page.Page, 1)
				assert.True(t, core.ValidPageSize(v.Page.PageSize))
				assert.True(t, v.Sort.Direction.Valid())
				assert.NotNil(t, v.Filters)
			})
		})
	}

	// valid pairs survive next to a malformed one
	v := DecodeQuery("page=%zz&sort=price")
	assert.Equal(t, "price", v.Sort.Field)
}

func TestDecode_ReservedValues(t *testing.T) {
	v := Decode(url.Values{
		"page":     {"3"},
		"pageSize": {"20"},
		"sort":     {"rating"},
		"order":    {"desc"},
		"q":        {"Lamp"},
		"tab":      {"draft"},
	})

	assert.Equal(t, core.PageRequest{Page: 3, PageSize: 20}, v.Page)
	assert.Equal(t, core.SortSpec{Field: "rating", Direction: core.Desc}, v.Sort)
	assert.Equal(t, "Lamp", v.Search)
	assert.Equal(t, "draft", v.Tab)
	assert.Empty(t, v.Filters)
}

func TestDecode_NonFiniteNumbersAreDropped(t *testing.T) {
	v := DecodeQuery("rating=NaN&priceMin=%2BInf&priceMax=-Inf")
	assert.Empty(t, v.Filters)
}

func TestCodec_Owns(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{key: "page", want: true},
		{key: "q", want: true},
		{key: "priceMin", want: true},
		{key: "priceMax", want: true},
		{key: "dateFrom", want: true},
		{key: "dateTo", want: true},
		{key: "color[]", want: true},
		{key: "price", want: false},
		{key: "ratingMin", want: false},
		{key: "color", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Products.Owns(tt.key))
		})
	}
}

func TestCodec_Accept(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		filter core.Filter
		want   core.Filter
		wantOK bool
	}{
		{name: "multi-select is trimmed", key: "tags", filter: core.MultiSelect{" x", " ", "y "}, want: core.MultiSelect{"x", "y"}, wantOK: true},
		{name: "range", key: "price", filter: core.Range{Min: core.Float(5)}, want: core.Range{Min: core.Float(5)}, wantOK: true},
		{name: "range NaN", key: "price", filter: core.Range{Min: core.Float(math.NaN())}},
		{name: "range Inf", key: "price", filter: core.Range{Max: core.Float(math.Inf(1))}},
		{name: "threshold", key: "rating", filter: core.Threshold(4), want: core.Threshold(4), wantOK: true},
		{name: "threshold -Inf", key: "rating", filter: core.Threshold(math.Inf(-1))},
		{name: "date range normalized", key: "date", filter: core.DateRange{From: "2024-01-05T10:00:00Z"}, want: core.DateRange{From: "2024-01-05"}, wantOK: true},
		{name: "date range invalid", key: "date", filter: core.DateRange{To: "soon"}},
		{name: "flag", key: "inStock", filter: core.Flag(false), want: core.Flag(false), wantOK: true},
		{name: "wrong kind for schema key", key: "price", filter: core.MultiSelect{"5"}},
		{name: "unknown scalar", key: "color", filter: core.Scalar(" red "), want: core.Scalar(" red "), wantOK: true},
		{name: "unknown multi-select", key: "color", filter: core.MultiSelect{"red"}, want: core.MultiSelect{"red"}, wantOK: true},
		{name: "unknown threshold", key: "weight", filter: core.Threshold(3)},
		{name: "unknown flag", key: "featured", filter: core.Flag(true)},
		{name: "bound key", key: "priceMin", filter: core.Scalar("5")},
		{name: "array key", key: "color[]", filter: core.Scalar("red")},
		{name: "reserved key", key: "tab", filter: core.Scalar("all")},
		{name: "nil removes", key: "tags", filter: nil, want: nil, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Products.Accept(tt.key, tt.filter)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.want, got)

			// Whatever is accepted survives the URL unchanged.
			if got != nil {
				v := state(func(v *core.ViewState) { v.Filters = core.FilterSet{tt.key: got} })
				assert.Equal(t, v, DecodeQuery(EncodeQuery(v)))
			}
		})
	}
}
