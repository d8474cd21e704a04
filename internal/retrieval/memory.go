package retrieval

import (
	"context"
	"sync"

	"github.com/yoockh/bikeshop-agent/internal/models"
)

// MemoryIndex is a brute-force cosine index held in process.
type MemoryIndex struct {
	emb Embedder

	mu       sync.RWMutex
	products []indexedProduct
	faqs     []indexedFAQ
}

type indexedProduct struct {
	product models.Product
	vec     []float32
}

type indexedFAQ struct {
	entry models.FAQEntry
	vec   []float32
}

var _ Backend = (*MemoryIndex)(nil)

func NewMemoryIndex(emb Embedder) *MemoryIndex {
	if emb == nil {
		emb = HashEmbedder{}
	}
	return &MemoryIndex{emb: emb}
}

// IndexProducts replaces the indexed products.
func (m *MemoryIndex) IndexProducts(_ context.Context, products []models.Product) error {
	rows := make([]indexedProduct, len(products))
	for i, p := range products {
		rows[i] = indexedProduct{product: p, vec: m.emb.Embed(p.Text())}
	}
	m.mu.Lock()
	m.products = rows
	m.mu.Unlock()
	return nil
}

// IndexFAQs replaces the indexed FAQ entries.
func (m *MemoryIndex) IndexFAQs(_ context.Context, faqs []models.FAQEntry) error {
	rows := make([]indexedFAQ, len(faqs))
	for i, f := range faqs {
		rows[i] = indexedFAQ{entry: f, vec: m.emb.Embed(f.Text())}
	}
	m.mu.Lock()
	m.faqs = rows
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) SearchProducts(ctx context.Context, query string, topK int, maxPrice *int) ([]models.ScoredProduct, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.products) == 0 {
		return nil, ErrNotIndexed
	}
	q := m.emb.Embed(query)

	out := make([]models.ScoredProduct, 0, len(m.products))
	for _, row := range m.products {
		if !withinBudget(row.product, maxPrice) {
			continue
		}
		out = append(out, models.ScoredProduct{Product: row.product, Score: Cosine(q, row.vec)})
	}
	sortProducts(out)
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, ctx.Err()
}

func (m *MemoryIndex) SearchFAQ(ctx context.Context, query string, topK int) ([]models.ScoredFAQ, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.faqs) == 0 {
		return nil, ErrNotIndexed
	}
	q := m.emb.Embed(query)

	out := make([]models.ScoredFAQ, 0, len(m.faqs))
	for _, row := range m.faqs {
		out = append(out, models.ScoredFAQ{Entry: row.entry, Score: Cosine(q, row.vec)})
	}
	sortFAQs(out)
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, ctx.Err()
}

func (m *MemoryIndex) Close() error { return nil }
