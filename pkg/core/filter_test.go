package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSet_Normalize(t *testing.T) {
	fs := FilterSet{
		"category": MultiSelect{},
		"tags":     MultiSelect{"Sale"},
		"price":    Range{},
		"date":     DateRange{},
		"rating":   Threshold(4),
		"custom":   nil,
	}

	got := fs.Normalize()

	assert.Equal(t, FilterSet{
		"tags":   MultiSelect{"Sale"},
		"rating": Threshold(4),
	}, got)
	// Original untouched
	assert.Len(t, fs, 6)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		kind    FilterKind
		raw     []string
		want    Filter
		wantErr bool
	}{
		{name: "multi-select trims blanks", kind: FilterMultiSelect, raw: []string{"Books", " ", "Toys"}, want: MultiSelect{"Books", "Toys"}},
		{name: "range both bounds", kind: FilterRange, raw: []string{"10", "50.5"}, want: Range{Min: Float(10), Max: Float(50.5)}},
		{name: "range open upper", kind: FilterRange, raw: []string{"10", ""}, want: Range{Min: Float(10)}},
		{name: "range invalid", kind: FilterRange, raw: []string{"ten"}, wantErr: true},
		{name: "threshold", kind: FilterThreshold, raw: []string{"4.5"}, want: Threshold(4.5)},
		{name: "threshold invalid", kind: FilterThreshold, raw: []string{"abc"}, wantErr: true},
		{name: "threshold NaN", kind: FilterThreshold, raw: []string{"NaN"}, wantErr: true},
		{name: "threshold Inf", kind: FilterThreshold, raw: []string{"Inf"}, wantErr: true},
		{name: "range +Inf lower", kind: FilterRange, raw: []string{"+Inf", "10"}, wantErr: true},
		{name: "range -Inf upper", kind: FilterRange, raw: []string{"", "-Inf"}, wantErr: true},
		{name: "range NaN", kind: FilterRange, raw: []string{" nan "}, wantErr: true},
		{name: "flag", kind: FilterFlag, raw: []string{"true"}, want: Flag(true)},
		{name: "flag invalid", kind: FilterFlag, raw: []string{"yes please"}, wantErr: true},
		{name: "date range truncates timestamps", kind: FilterDateRange, raw: []string{"2024-01-05T10:00:00Z", "2024-02-01"}, want: DateRange{From: "2024-01-05", To: "2024-02-01"}},
		{name: "date range invalid", kind: FilterDateRange, raw: []string{"yesterday"}, wantErr: true},
		{name: "scalar", kind: FilterScalar, raw: []string{"x"}, want: Scalar("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.kind, tt.raw...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestViewState_EffectiveFilters(t *testing.T) {
	v := DefaultViewState()
	v.Filters = FilterSet{"status": MultiSelect{"draft"}, "category": MultiSelect{}}

	assert.Equal(t, FilterSet{"status": MultiSelect{"draft"}}, v.EffectiveFilters())

	v.Tab = "active"
	assert.Equal(t, FilterSet{"status": MultiSelect{"active"}}, v.EffectiveFilters())
	// Tab override never leaks into the stored filters
	assert.Equal(t, MultiSelect{"draft"}, v.Filters["status"])
}

func TestProduct_Field(t *testing.T) {
	p := Product{ID: "PROD-0001", Name: "Lamp", Price: 12.5, Stock: 3, DateAdded: "2024-03-01", Tags: []string{"New"}}

	v, ok := p.Field("price")
	require.True(t, ok)
	assert.Equal(t, NumberValue(12.5), v)

	v, ok = p.Field("dateAdded")
	require.True(t, ok)
	assert.Equal(t, KindDate, v.Kind)
	assert.Equal(t, "2024-03-01", v.String())

	_, ok = p.Field("nope")
	assert.False(t, ok)
}
