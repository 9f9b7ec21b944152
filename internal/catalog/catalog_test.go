package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"demo", "duckdb", "file", "postgres", "sqlite"} {
		assert.True(t, IsRegistered(name), name)
	}
	assert.IsIncreasing(t, ListLoaders())

	_, err := NewLoader(Config{Type: "excel"}, nil)
	var unknown *UnknownLoaderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "excel", unknown.Type)
	assert.Contains(t, unknown.Available, "file")

	_, err = NewLoader(Config{}, nil)
	assert.ErrorContains(t, err, "catalog type not specified")
}

func TestFileLoader_Formats(t *testing.T) {
	want := []core.Product{
		{ID: "A-1", Name: "Lamp", Category: "Home & Garden", Price: 24.5, Stock: 3, Rating: 4.5, DateAdded: "2024-02-01", Tags: []string{"New", "Sale"}, Status: core.StatusActive},
		{ID: "A-2", Name: "Mug", Category: "Home & Garden", Price: 8, Stock: 0, Rating: 3, DateAdded: "2024-03-15", Tags: []string{"Local"}, Status: core.StatusDraft},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "csv",
			file: "catalog.csv",
			content: "id,name,category,price,stock,rating,dateAdded,tags,status\n" +
				"A-1,Lamp,Home & Garden,24.5,3,4.5,2024-02-01,New|Sale,active\n" +
				"A-2,Mug,Home & Garden,8,0,3,2024-03-15,Local,draft\n",
		},
		{
			name: "json list",
			file: "catalog.json",
			content: `[
  {"id": "A-1", "name": "Lamp", "category": "Home & Garden", "price": 24.5, "stock": 3, "rating": 4.5, "dateAdded": "2024-02-01", "tags": ["New", "Sale"], "status": "active"},
  {"id": "A-2", "name": "Mug", "category": "Home & Garden", "price": 8, "stock": 0, "rating": 3, "dateAdded": "2024-03-15T09:30:00Z", "tags": ["Local"], "status": "draft"}
]`,
		},
		{
			name: "yaml with products key",
			file: "catalog.yaml",
			content: `products:
  - id: A-1
    name: Lamp
    category: Home & Garden
    price: 24.5
    stock: "3"
    rating: 4.5
    dateAdded: 2024-02-01
    tags: [New, Sale]
    status: active
  - id: A-2
    name: Mug
    category: Home & Garden
    price: 8
    stock: 0
    rating: 3
    dateAdded: 2024-03-15
    tags: Local
    status: draft
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			snap, err := Load(context.Background(), Config{Type: "file", Path: path}, nil)
			require.NoError(t, err)
			assert.Equal(t, want, snap.Products)
		})
	}
}

func TestFileLoader_FillsDefaults(t *testing.T) {
	path := writeFile(t, "catalog.yml", "- name: Untitled\n")

	snap, err := Load(context.Background(), Config{Type: "file", Path: path}, nil)
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)

	p := snap.Products[0]
	assert.Len(t, p.ID, 36, "uuid assigned")
	assert.Equal(t, core.StatusActive, p.Status)
	assert.Equal(t, []string{}, p.Tags)
}

func TestFileLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
		is      error
	}{
		{name: "unknown extension", file: "catalog.xlsx", content: "x", is: ErrUnknownFormat},
		{name: "scalar document", file: "catalog.yaml", content: "42", errMsg: "list of records"},
		{name: "non-mapping record", file: "catalog.json", content: `["a"]`, errMsg: "record 0 is not a mapping"},
		{name: "bad number", file: "catalog.csv", content: "id,price\nA,cheap\n", errMsg: "record 1"},
		{name: "ragged csv", file: "catalog.csv", content: "id,name\nA\n", errMsg: "failed to parse csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(context.Background(), Config{Type: "file", Path: path}, nil)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}

	_, err := Load(context.Background(), Config{Type: "file"}, nil)
	assert.ErrorContains(t, err, "catalog path not specified")
}

func TestLoad_VersionChangesPerLoad(t *testing.T) {
	cfg := Config{Type: "demo", Count: 20, Seed: 7}

	a, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)
	b, err := Load(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Len(t, a.Products, 20)
	assert.NotEqual(t, a.Version, b.Version)
	assert.Equal(t, "demo", a.Source)
}

func TestGenerateDemo(t *testing.T) {
	anchor := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)

	a := GenerateDemo(200, 42, anchor)
	b := GenerateDemo(200, 42, anchor)
	c := GenerateDemo(200, 43, anchor)

	assert.Equal(t, a, b, "same seed, same catalog")
	assert.NotEqual(t, a, c)
	assert.Len(t, GenerateDemo(0, 1, anchor), DefaultDemoCount)

	earliest := anchor.AddDate(0, 0, -365).Format(core.DateLayout)
	for _, p := range a {
		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.LessOrEqual(t, p.Price, 510.0)
		assert.GreaterOrEqual(t, p.Rating, 1.0)
		assert.LessOrEqual(t, p.Rating, 5.0)
		assert.Contains(t, DemoCategories, p.Category)
		assert.NotEmpty(t, p.Tags)
		assert.LessOrEqual(t, len(p.Tags), 3)
		assert.GreaterOrEqual(t, p.DateAdded, earliest)
		assert.LessOrEqual(t, p.DateAdded, "2025-06-30")
	}
}

func TestFacetsOf(t *testing.T) {
	products := []core.Product{
		{Category: "Toys", Tags: []string{"Sale", "New"}, Status: core.StatusActive},
		{Category: "Books", Tags: []string{"Sale"}, Status: core.StatusDraft},
		{Category: "Toys", Status: core.StatusActive},
	}

	assert.Equal(t, Facets{
		Categories: []string{"Books", "Toys"},
		Tags:       []string{"New", "Sale"},
		Statuses:   []string{"active", "draft"},
	}, FacetsOf(products))
}
