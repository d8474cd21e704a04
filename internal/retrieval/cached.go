package retrieval

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/cache"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

// Cached memoises search results. Cache failures are ignored and the
// underlying searcher is asked instead.
type Cached struct {
	next  Searcher
	cache cache.Cache
	ttl   time.Duration
}

var _ Searcher = (*Cached)(nil)

func NewCached(next Searcher, c cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{next: next, cache: c, ttl: ttl}
}

func (c *Cached) SearchProducts(ctx context.Context, query string, topK int, maxPrice *int) ([]models.ScoredProduct, error) {
	budget := "any"
	if maxPrice != nil {
		budget = strconv.Itoa(*maxPrice)
	}
	key := cache.Key("products", strconv.Itoa(topK), budget, normalizeQuery(query))

	var out []models.ScoredProduct
	if hit, err := c.cache.GetJSON(ctx, key, &out); err == nil && hit {
		return out, nil
	}

	out, err := c.next.SearchProducts(ctx, query, topK, maxPrice)
	if err != nil {
		return nil, err
	}
	_ = c.cache.SetJSON(ctx, key, out, c.ttl)
	return out, nil
}

func (c *Cached) SearchFAQ(ctx context.Context, query string, topK int) ([]models.ScoredFAQ, error) {
	key := cache.Key("faq", strconv.Itoa(topK), normalizeQuery(query))

	var out []models.ScoredFAQ
	if hit, err := c.cache.GetJSON(ctx, key, &out); err == nil && hit {
		return out, nil
	}

	out, err := c.next.SearchFAQ(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	_ = c.cache.SetJSON(ctx, key, out, c.ttl)
	return out, nil
}

func normalizeQuery(q string) string { return strings.Join(Tokenize(q), " ") }
