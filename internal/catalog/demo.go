package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// DefaultDemoCount is the size of the generated demo catalog.
const DefaultDemoCount = 500

// DemoCategories and DemoTags are the value pools of the demo catalog.
var (
	DemoCategories = []string{"Electronics", "Clothing", "Home & Garden", "Books", "Sports", "Toys"}
	DemoTags       = []string{"New", "Sale", "Best Seller", "Trending", "Limited Edition", "Eco-Friendly", "Handmade", "Organic", "Imported", "Local"}
)

var demoStatuses = []core.ProductStatus{core.StatusActive, core.StatusArchived, core.StatusDraft}

func init() {
	Register("demo", func(*slog.Logger) Loader {
		return LoaderFunc(func(_ context.Context, cfg Config) ([]core.Product, error) {
			return GenerateDemo(cfg.Count, cfg.Seed, time.Now()), nil
		})
	})
}

// GenerateDemo builds count pseudo-random products. The same seed and anchor
// day always produce the same catalog. Dates fall within the year before
// anchor.
func GenerateDemo(count int, seed uint64, anchor time.Time) []core.Product {
	if count <= 0 {
		count = DefaultDemoCount
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]core.Product, count)
	for i := range out {
		category := DemoCategories[rng.IntN(len(DemoCategories))]
		tags := make([]string, 0, 3)
		for range rng.IntN(3) + 1 {
			tag := DemoTags[rng.IntN(len(DemoTags))]
			if !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
		out[i] = core.Product{
			ID:          fmt.Sprintf("PROD-%04d", i+1),
			Name:        fmt.Sprintf("Product %d", i+1),
			Description: fmt.Sprintf("This is a sample description for Product %d. It belongs to the %s category.", i+1, category),
			Category:    category,
			Price:       math.Round((rng.Float64()*500+10)*100) / 100,
			Stock:       rng.IntN(100),
			Rating:      math.Round((rng.Float64()*4+1)*10) / 10,
			DateAdded:   day.AddDate(0, 0, -rng.IntN(365)).Format(core.DateLayout),
			Tags:        tags,
			Status:      demoStatuses[rng.IntN(len(demoStatuses))],
		}
	}
	return out
}
