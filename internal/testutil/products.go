package testutil

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// Categories used by the product fixtures.
var Categories = []string{"Electronics", "Clothing", "Home & Garden", "Books", "Sports", "Toys"}

// Tags used by the product fixtures.
var Tags = []string{"New", "Sale", "Best Seller", "Trending", "Limited Edition", "Eco-Friendly", "Handmade", "Organic", "Imported", "Local"}

var statuses = []core.ProductStatus{core.StatusActive, core.StatusArchived, core.StatusDraft}

var fixtureEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Products returns n deterministic products. Every field is a pure function of
// the index so tests can reason about the collection without randomness.
func Products(n int) []core.Product {
	out := make([]core.Product, n)
	for i := range out {
		out[i] = Product(i)
	}
	return out
}

// Product returns the i-th fixture product.
func Product(i int) core.Product {
	category := Categories[i%len(Categories)]
	tags := []string{Tags[i%len(Tags)]}
	if second := Tags[(i*3+1)%len(Tags)]; second != tags[0] {
		tags = append(tags, second)
	}
	return core.Product{
		ID:          fmt.Sprintf("PROD-%04d", i+1),
		Name:        fmt.Sprintf("Product %d", i+1),
		Description: fmt.Sprintf("This is a sample description for Product %d. It belongs to the %s category.", i+1, category),
		Category:    category,
		Price:       10 + float64((i*37)%491),
		Stock:       (i * 13) % 100,
		Rating:      1 + float64((i*7)%41)/10,
		DateAdded:   fixtureEpoch.AddDate(0, 0, (i*5)%365).Format(core.DateLayout),
		Tags:        tags,
		Status:      statuses[i%len(statuses)],
	}
}
