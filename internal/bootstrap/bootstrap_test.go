package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yoockh/bikeshop-agent/config"
	"github.com/yoockh/bikeshop-agent/internal/catalog"
	"github.com/yoockh/bikeshop-agent/internal/logger"
	"github.com/yoockh/bikeshop-agent/internal/memory"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
	"github.com/yoockh/bikeshop-agent/internal/storage"
)

const productsJSON = `[
  {"id": 1, "name": "Trail Hawk", "type": "mountain", "brand": "Ridge", "price_eur": 1200,
   "frame_material": "aluminum", "suspension": "hardtail", "wheel_size": 29, "gears": 12,
   "brakes": "hydraulic disc", "weight_kg": 13.5, "intended_use": ["trails"], "color": "red"}
]`

const faqText = `Bike shop FAQ

1. Do you deliver?
Yes, within the EU.
`

func TestLoadAndIndexLocalCatalog(t *testing.T) {
	dir := t.TempDir()
	products := filepath.Join(dir, "products.json")
	faq := filepath.Join(dir, "faq.txt")
	if err := os.WriteFile(products, []byte(productsJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(faq, []byte(faqText), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.AppConfig{ProductCatalogPath: products, FAQPath: faq, RetrievalBackend: "memory"}
	ctx := context.Background()

	cat, err := LoadCatalog(ctx, cfg)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(cat.Products) != 1 || len(cat.FAQs) != 1 {
		t.Fatalf("catalog = %+v", cat)
	}

	backend, err := Backend(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*retrieval.MemoryIndex); !ok {
		t.Fatalf("backend = %T", backend)
	}
	if err := Index(ctx, backend, cat, logger.Discard()); err != nil {
		t.Fatal(err)
	}

	found, err := Searcher(backend, cfg).SearchProducts(ctx, "mountain trails", 3, nil)
	if err != nil || len(found) != 1 {
		t.Errorf("found = %v, %v", found, err)
	}
}

func TestBackendRequiresPostgres(t *testing.T) {
	config.PostgresDB = nil
	if _, err := Backend(context.Background(), &config.AppConfig{RetrievalBackend: "pgvector"}); err == nil {
		t.Fatal("pgvector without postgres should fail")
	}
}

func TestMemoryBackends(t *testing.T) {
	m, err := Memory(&config.AppConfig{MemoryBackend: "none"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.(memory.Noop); !ok {
		t.Errorf("none = %T", m)
	}

	b, err := Memory(&config.AppConfig{MemoryBackend: "bolt", MemoryBoltPath: filepath.Join(t.TempDir(), "m.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	if _, ok := b.(*memory.BoltMemory); !ok {
		t.Errorf("bolt = %T", b)
	}

	config.RedisClient = nil
	if _, err := Memory(&config.AppConfig{MemoryBackend: "redis"}); err == nil {
		t.Error("redis memory without a client should fail")
	}
}

func TestLLMDisabled(t *testing.T) {
	p, err := LLM(context.Background(), &config.AppConfig{LLMProvider: "none"})
	if err != nil || p != nil {
		t.Errorf("provider = %v, %v", p, err)
	}
}

func TestPublishNeedsBucketPrefix(t *testing.T) {
	_, _, err := Publish(context.Background(), &config.AppConfig{}, &catalog.Catalog{}, "/tmp/out")
	if !errors.Is(err, storage.ErrUnsupportedURI) {
		t.Fatalf("err = %v", err)
	}
}
