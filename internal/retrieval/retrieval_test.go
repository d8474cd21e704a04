package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/cache"
	"github.com/yoockh/bikeshop-agent/internal/models"
)

var testProducts = []models.Product{
	{ID: 1, Name: "Trailblazer 500", Type: "mountain", Brand: "Ridge", PriceEUR: 1899, FrameMaterial: "aluminum", Suspension: "full", Gears: 12, Brakes: "hydraulic disc", IntendedUse: []string{"trail", "off-road"}},
	{ID: 2, Name: "Summit Pro", Type: "mountain", Brand: "Ridge", PriceEUR: 3499, FrameMaterial: "carbon", Suspension: "full", Gears: 12, Brakes: "hydraulic disc", IntendedUse: []string{"trail", "racing"}},
	{ID: 3, Name: "Urban Cruiser", Type: "city", Brand: "Metro", PriceEUR: 699, FrameMaterial: "steel", Suspension: "none", Gears: 7, Brakes: "rim", IntendedUse: []string{"commuting"}},
}

var testFAQs = []models.FAQEntry{
	{ID: 1, Question: "What warranty do you offer?", Answer: "Frames carry a 5 year warranty."},
	{ID: 2, Question: "Do you deliver to Austria?", Answer: "Yes, delivery across the EU."},
}

func TestHashEmbedder(t *testing.T) {
	e := HashEmbedder{}
	a := e.Embed("mountain trail bike")
	if len(a) != Dim {
		t.Fatalf("dim = %d", len(a))
	}
	if Cosine(a, e.Embed("Mountain, trail BIKE!")) < 0.999 {
		t.Error("embedding should ignore case and punctuation")
	}
	if Cosine(a, e.Embed("mountain trail")) <= Cosine(a, e.Embed("warranty payment")) {
		t.Error("overlapping text should score higher")
	}
	for _, x := range e.Embed("") {
		if x != 0 {
			t.Fatal("empty text should embed to zero")
		}
	}
}

func TestMemoryIndexProducts(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(nil)

	if _, err := idx.SearchProducts(ctx, "bike", 5, nil); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("empty index err = %v", err)
	}
	if err := idx.IndexProducts(ctx, testProducts); err != nil {
		t.Fatal(err)
	}

	got, err := idx.SearchProducts(ctx, "mountain trail", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Product.Type != "mountain" {
		t.Fatalf("unexpected ranking %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Fatal("results not sorted by score")
		}
	}

	budget := 2000
	got, _ = idx.SearchProducts(ctx, "mountain trail", 5, &budget)
	for _, sp := range got {
		if sp.Product.PriceEUR > budget {
			t.Fatalf("product over budget: %+v", sp.Product)
		}
	}

	got, _ = idx.SearchProducts(ctx, "mountain", 1, nil)
	if len(got) != 1 {
		t.Fatalf("topK not applied: %d", len(got))
	}
}

func TestMemoryIndexFAQ(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(HashEmbedder{})
	_ = idx.IndexFAQs(ctx, testFAQs)

	got, err := idx.SearchFAQ(ctx, "warranty", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Entry.ID != 1 {
		t.Fatalf("got %+v", got)
	}
}

type countingSearcher struct {
	Searcher
	productCalls int
}

func (c *countingSearcher) SearchProducts(ctx context.Context, q string, k int, max *int) ([]models.ScoredProduct, error) {
	c.productCalls++
	return c.Searcher.SearchProducts(ctx, q, k, max)
}

func TestCachedSearcher(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(nil)
	_ = idx.IndexProducts(ctx, testProducts)
	_ = idx.IndexFAQs(ctx, testFAQs)

	inner := &countingSearcher{Searcher: idx}
	c := NewCached(inner, cache.NewMemoryCache(), time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := c.SearchProducts(ctx, "Mountain trail", 5, nil); err != nil {
			t.Fatal(err)
		}
	}
	if inner.productCalls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.productCalls)
	}

	budget := 1000
	_, _ = c.SearchProducts(ctx, "mountain trail", 5, &budget)
	if inner.productCalls != 2 {
		t.Fatalf("a different budget must miss the cache, calls = %d", inner.productCalls)
	}

	faqs, err := c.SearchFAQ(ctx, "warranty", 2)
	if err != nil || len(faqs) == 0 {
		t.Fatalf("faq search: %v %v", faqs, err)
	}
}
