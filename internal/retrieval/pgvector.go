package retrieval

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/bikeshop-agent/internal/models"
	pgrepo "github.com/yoockh/bikeshop-agent/internal/repositories/postgres"
)

// PgvectorIndex searches the catalog tables with pgvector cosine distance.
type PgvectorIndex struct {
	repo pgrepo.CatalogRepo
	emb  Embedder
}

var _ Backend = (*PgvectorIndex)(nil)

func NewPgvectorIndex(repo pgrepo.CatalogRepo, emb Embedder) *PgvectorIndex {
	if emb == nil {
		emb = HashEmbedder{}
	}
	return &PgvectorIndex{repo: repo, emb: emb}
}

func (p *PgvectorIndex) SearchProducts(ctx context.Context, query string, topK int, maxPrice *int) ([]models.ScoredProduct, error) {
	rows, err := p.repo.NearestProducts(ctx, p.emb.Embed(query), topK, maxPrice)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredProduct, 0, len(rows))
	for _, row := range rows {
		prod, err := row.ProductRecord.Product()
		if err != nil {
			continue
		}
		out = append(out, models.ScoredProduct{Product: prod, Score: float32(1 - row.Distance)})
	}
	return out, nil
}

func (p *PgvectorIndex) SearchFAQ(ctx context.Context, query string, topK int) ([]models.ScoredFAQ, error) {
	rows, err := p.repo.NearestFAQs(ctx, p.emb.Embed(query), topK)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredFAQ, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ScoredFAQ{
			Entry: models.FAQEntry{ID: row.ID, Question: row.Question, Answer: row.Answer},
			Score: float32(1 - row.Distance),
		})
	}
	return out, nil
}

func (p *PgvectorIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	rows := make([]models.ProductRecord, 0, len(products))
	for _, prod := range products {
		rec, err := models.NewProductRecord(prod, p.emb.Embed(prod.Text()))
		if err != nil {
			return err
		}
		rows = append(rows, rec)
	}
	return p.repo.UpsertProducts(ctx, rows)
}

func (p *PgvectorIndex) IndexFAQs(ctx context.Context, faqs []models.FAQEntry) error {
	rows := make([]models.FAQRecord, 0, len(faqs))
	for _, f := range faqs {
		rows = append(rows, models.FAQRecord{ID: f.ID, Question: f.Question, Answer: f.Answer, Embedding: pgvector.NewVector(p.emb.Embed(f.Text()))})
	}
	return p.repo.UpsertFAQs(ctx, rows)
}

// Close is a no-op; the database handle belongs to the caller.
func (p *PgvectorIndex) Close() error { return nil }
