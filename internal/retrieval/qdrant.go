package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

// qdrantAPI is the subset of *qdrant.Client the index uses.
type qdrantAPI interface {
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error
	Close() error
}

type QdrantConfig struct {
	// URL is the server address, e.g. "https://example.qdrant.io:6334".
	URL               string
	APIKey            string
	ProductCollection string
	FAQCollection     string
}

// QdrantIndex stores products and FAQ entries as points whose "content"
// payload is the JSON record.
type QdrantIndex struct {
	client   qdrantAPI
	emb      Embedder
	products string
	faqs     string
}

var _ Backend = (*QdrantIndex)(nil)

func NewQdrantIndex(cfg QdrantConfig, emb Embedder) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port := 6334
	if u.Port() != "" {
		if port, err = strconv.Atoi(u.Port()); err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
	}

	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return newQdrantIndex(c, emb, cfg.ProductCollection, cfg.FAQCollection), nil
}

func newQdrantIndex(c qdrantAPI, emb Embedder, products, faqs string) *QdrantIndex {
	if emb == nil {
		emb = HashEmbedder{}
	}
	if products == "" {
		products = "bike_products"
	}
	if faqs == "" {
		faqs = "bike_faq"
	}
	return &QdrantIndex{client: c, emb: emb, products: products, faqs: faqs}
}

func (q *QdrantIndex) Close() error { return q.client.Close() }

func (q *QdrantIndex) SearchProducts(ctx context.Context, query string, topK int, maxPrice *int) ([]models.ScoredProduct, error) {
	var filter *qdrant.Filter
	if maxPrice != nil {
		lte := float64(*maxPrice)
		filter = &qdrant.Filter{Must: []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{Key: "price_eur", Range: &qdrant.Range{Lte: &lte}},
			},
		}}}
	}

	points, err := q.query(ctx, q.products, query, topK, filter)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredProduct, 0, len(points))
	for _, pt := range points {
		var p models.Product
		if !decodeContent(pt, &p) || !withinBudget(p, maxPrice) {
			continue
		}
		out = append(out, models.ScoredProduct{Product: p, Score: pt.Score})
	}
	sortProducts(out)
	return out, nil
}

func (q *QdrantIndex) SearchFAQ(ctx context.Context, query string, topK int) ([]models.ScoredFAQ, error) {
	points, err := q.query(ctx, q.faqs, query, topK, nil)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScoredFAQ, 0, len(points))
	for _, pt := range points {
		var f models.FAQEntry
		if !decodeContent(pt, &f) {
			continue
		}
		out = append(out, models.ScoredFAQ{Entry: f, Score: pt.Score})
	}
	sortFAQs(out)
	return out, nil
}

func (q *QdrantIndex) query(ctx context.Context, collection, text string, topK int, filter *qdrant.Filter) ([]*qdrant.ScoredPoint, error) {
	if topK <= 0 {
		topK = 5
	}
	limit := uint64(topK)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(q.emb.Embed(text)...),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}
	return points, nil
}

func (q *QdrantIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	points := make([]*qdrant.PointStruct, 0, len(products))
	for _, p := range products {
		content, err := json.Marshal(p)
		if err != nil {
			return err
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(q.emb.Embed(p.Text())...),
			Payload: map[string]*qdrant.Value{
				"content":   qdrant.NewValueString(string(content)),
				"price_eur": qdrant.NewValueInt(int64(p.PriceEUR)),
				"type":      qdrant.NewValueString(p.Type),
			},
		})
	}
	return q.upsert(ctx, q.products, points)
}

func (q *QdrantIndex) IndexFAQs(ctx context.Context, faqs []models.FAQEntry) error {
	points := make([]*qdrant.PointStruct, 0, len(faqs))
	for _, f := range faqs {
		content, err := json.Marshal(f)
		if err != nil {
			return err
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(f.ID)),
			Vectors: qdrant.NewVectors(q.emb.Embed(f.Text())...),
			Payload: map[string]*qdrant.Value{"content": qdrant.NewValueString(string(content))},
		})
	}
	return q.upsert(ctx, q.faqs, points)
}

func (q *QdrantIndex) upsert(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("qdrant collection check failed: %w", err)
	}
	if !exists {
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     Dim,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("qdrant create collection failed: %w", err)
		}
	}
	if len(points) == 0 {
		return nil
	}

	wait := true
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// decodeContent unmarshals the JSON record stored in the "content" payload.
// Content with surrounding text is tolerated by cutting to the outer braces.
func decodeContent(pt *qdrant.ScoredPoint, dst any) bool {
	v, ok := pt.GetPayload()["content"]
	if !ok {
		return false
	}
	s := v.GetStringValue()
	if json.Unmarshal([]byte(s), dst) == nil {
		return true
	}
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return false
	}
	return json.Unmarshal([]byte(s[start:end+1]), dst) == nil
}
