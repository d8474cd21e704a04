// Package retrieval finds catalog products and FAQ entries similar to a query.
package retrieval

import (
	"context"
	"errors"
	"sort"

	"github.com/yoockh/bikeshop-agent/internal/models"
)

// ErrNotIndexed is returned when a backend has no data for the requested kind.
var ErrNotIndexed = errors.New("retrieval: nothing indexed")

type ProductSearcher interface {
	// SearchProducts returns up to topK products ranked by relevance.
	// A non-nil maxPrice drops products priced above it.
	SearchProducts(ctx context.Context, query string, topK int, maxPrice *int) ([]models.ScoredProduct, error)
}

type FAQSearcher interface {
	SearchFAQ(ctx context.Context, query string, topK int) ([]models.ScoredFAQ, error)
}

type Searcher interface {
	ProductSearcher
	FAQSearcher
}

// Indexer writes catalog data into a backend.
type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
	IndexFAQs(ctx context.Context, faqs []models.FAQEntry) error
}

type Backend interface {
	Searcher
	Indexer
	Close() error
}

func sortProducts(in []models.ScoredProduct) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Score > in[j].Score })
}

func sortFAQs(in []models.ScoredFAQ) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Score > in[j].Score })
}

func withinBudget(p models.Product, maxPrice *int) bool {
	return maxPrice == nil || p.PriceEUR <= *maxPrice
}
