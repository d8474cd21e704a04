// Package rag answers product and FAQ questions from retrieved catalog data.
package rag

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/prompts"
	"github.com/yoockh/bikeshop-agent/internal/providers/llm"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
)

const (
	ProductTopK = 5
	FAQTopK     = 2

	defaultTimeout = 10 * time.Second
)

type Options struct {
	// SearchTimeout bounds one retrieval call.
	SearchTimeout time.Duration
	// GenerateTimeout bounds one model call.
	GenerateTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = defaultTimeout
	}
	if o.GenerateTimeout <= 0 {
		o.GenerateTimeout = defaultTimeout
	}
	return o
}

type ProductRAG struct {
	search retrieval.ProductSearcher
	llm    llm.Provider // nil means template answers only
	log    *logrus.Logger
	opts   Options
}

func NewProductRAG(search retrieval.ProductSearcher, provider llm.Provider, log *logrus.Logger, opts Options) *ProductRAG {
	return &ProductRAG{search: search, llm: provider, log: log, opts: opts.withDefaults()}
}

// Search returns up to ProductTopK products for query. Retrieval failures
// are logged and reported as no results.
func (r *ProductRAG) Search(ctx context.Context, query string, maxPrice *int) []models.ScoredProduct {
	if maxPrice == nil {
		maxPrice = ExtractBudget(query)
	}
	q := ProductQuery(query)

	ctx, cancel := context.WithTimeout(ctx, r.opts.SearchTimeout)
	defer cancel()

	found, err := r.search.SearchProducts(ctx, q, ProductTopK*2, maxPrice)
	if err != nil {
		r.warn(err, "product search failed", logrus.Fields{"query": q})
		return nil
	}

	out := make([]models.ScoredProduct, 0, len(found))
	for _, sp := range found {
		if maxPrice != nil && sp.Product.PriceEUR > *maxPrice {
			continue
		}
		out = append(out, sp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > ProductTopK {
		out = out[:ProductTopK]
	}
	return out
}

// Recommend writes the reply for products. It falls back to a fixed
// template when the model is missing or fails.
func (r *ProductRAG) Recommend(ctx context.Context, query string, c conversation.Context, products []models.ScoredProduct) string {
	if len(products) == 0 {
		return prompts.NoProducts
	}
	if r.llm == nil {
		return prompts.FallbackRecommendation(products)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.GenerateTimeout)
	defer cancel()

	msgs := []llm.Message{
		{Role: "system", Content: prompts.System(conversation.StateRecommendation, c)},
		{Role: "user", Content: prompts.Recommendation(query, c, products)},
	}
	text, err := r.llm.Generate(ctx, msgs, llm.Options{Temperature: 0.7, MaxTokens: 300})
	if err != nil {
		r.warn(err, "recommendation generation failed, using template", nil)
		return prompts.FallbackRecommendation(products)
	}
	return text
}

func (r *ProductRAG) warn(err error, msg string, fields logrus.Fields) {
	if r.log == nil {
		return
	}
	r.log.WithFields(fields).WithError(err).Warn(msg)
}
