// Package bootstrap builds the configured implementations shared by the
// server and the catalog indexer.
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/bikeshop-agent/config"
	"github.com/yoockh/bikeshop-agent/internal/cache"
	"github.com/yoockh/bikeshop-agent/internal/catalog"
	"github.com/yoockh/bikeshop-agent/internal/memory"
	"github.com/yoockh/bikeshop-agent/internal/providers/llm"
	pgrepo "github.com/yoockh/bikeshop-agent/internal/repositories/postgres"
	"github.com/yoockh/bikeshop-agent/internal/retrieval"
	"github.com/yoockh/bikeshop-agent/internal/storage"
	"google.golang.org/api/option"
)

func googleOptions(cfg *config.AppConfig) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// CatalogSource returns a reader for the catalog paths. The returned close
// func is never nil.
func CatalogSource(ctx context.Context, cfg *config.AppConfig) (storage.Reader, func() error, error) {
	router := storage.Router{Local: storage.LocalReader{}}
	if !storage.IsRemote(cfg.ProductCatalogPath) && !storage.IsRemote(cfg.FAQPath) {
		return router, func() error { return nil }, nil
	}

	gcs, err := storage.NewGCSReader(ctx, googleOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("gcs client: %w", err)
	}
	router.GCS = gcs
	return router, gcs.Close, nil
}

// LoadCatalog reads products and FAQ entries from the configured paths.
func LoadCatalog(ctx context.Context, cfg *config.AppConfig) (*catalog.Catalog, error) {
	src, closeSrc, err := CatalogSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return catalog.Load(ctx, src, cfg.ProductCatalogPath, cfg.FAQPath)
}

// Publish uploads the normalised catalog under prefix (gs://bucket/dir) and
// returns the two object URIs servers can point PRODUCT_CATALOG_PATH and FAQ_PATH at.
func Publish(ctx context.Context, cfg *config.AppConfig, cat *catalog.Catalog, prefix string) (productsURI, faqURI string, err error) {
	if !storage.IsRemote(prefix) {
		return "", "", fmt.Errorf("%w: publish target must be gs://, got %q", storage.ErrUnsupportedURI, prefix)
	}
	gcs, err := storage.NewGCSReader(ctx, googleOptions(cfg)...)
	if err != nil {
		return "", "", fmt.Errorf("gcs client: %w", err)
	}
	defer gcs.Close()

	base := strings.TrimRight(prefix, "/")

	var products bytes.Buffer
	if err := catalog.EncodeProducts(&products, cat.Products); err != nil {
		return "", "", err
	}
	if productsURI, err = gcs.Upload(ctx, base+"/product_catalog.json", "application/json", &products); err != nil {
		return "", "", fmt.Errorf("upload products: %w", err)
	}

	var faq bytes.Buffer
	if err := catalog.EncodeFAQ(&faq, cat.FAQs); err != nil {
		return "", "", err
	}
	if faqURI, err = gcs.Upload(ctx, base+"/faq.txt", "text/plain; charset=utf-8", &faq); err != nil {
		return "", "", fmt.Errorf("upload faq: %w", err)
	}
	return productsURI, faqURI, nil
}

// Backend opens the retrieval backend. pgvector needs config.InitPostgres first.
func Backend(ctx context.Context, cfg *config.AppConfig) (retrieval.Backend, error) {
	emb := retrieval.HashEmbedder{}

	switch cfg.RetrievalBackend {
	case "pgvector":
		if config.PostgresDB == nil {
			return nil, fmt.Errorf("RETRIEVAL_BACKEND=pgvector requires POSTGRES_URI")
		}
		repo := pgrepo.NewCatalogRepo(config.PostgresDB)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("catalog migrate: %w", err)
		}
		return retrieval.NewPgvectorIndex(repo, emb), nil

	case "qdrant":
		idx, err := retrieval.NewQdrantIndex(retrieval.QdrantConfig{
			URL:               cfg.QdrantURL,
			APIKey:            cfg.QdrantAPIKey,
			ProductCollection: cfg.QdrantProducts,
			FAQCollection:     cfg.QdrantFAQ,
		}, emb)
		if err != nil {
			return nil, fmt.Errorf("qdrant: %w", err)
		}
		return idx, nil

	default:
		return retrieval.NewMemoryIndex(emb), nil
	}
}

// Index writes the catalog into idx.
func Index(ctx context.Context, idx retrieval.Indexer, cat *catalog.Catalog, log *logrus.Logger) error {
	if err := idx.IndexProducts(ctx, cat.Products); err != nil {
		return fmt.Errorf("index products: %w", err)
	}
	if err := idx.IndexFAQs(ctx, cat.FAQs); err != nil {
		return fmt.Errorf("index faq: %w", err)
	}
	log.WithFields(logrus.Fields{"products": len(cat.Products), "faqs": len(cat.FAQs)}).Info("catalog indexed")
	return nil
}

// Searcher puts a result cache in front of backend, Redis-backed when a client is available.
func Searcher(backend retrieval.Searcher, cfg *config.AppConfig) retrieval.Searcher {
	var c cache.Cache = cache.NewMemoryCache()
	if config.RedisClient != nil {
		c = cache.NewRedisCache(config.RedisClient, "retrieval:")
	}
	return retrieval.NewCached(backend, c, cfg.RetrievalCacheTTL)
}

// LLM returns nil when no provider is configured; callers fall back to templates.
func LLM(ctx context.Context, cfg *config.AppConfig) (llm.Provider, error) {
	if cfg.LLMProvider != "vertex" {
		return nil, nil
	}
	p, err := llm.NewVertexGemini(ctx, cfg.VertexProject, cfg.VertexLocation, cfg.VertexModel, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("vertex: %w", err)
	}
	return p, nil
}

// Memory opens customer memory. Redis memory needs config.InitRedis first.
func Memory(cfg *config.AppConfig) (memory.Memory, error) {
	switch cfg.MemoryBackend {
	case "bolt":
		m, err := memory.OpenBolt(cfg.MemoryBoltPath, cfg.MemoryTTL)
		if err != nil {
			return nil, fmt.Errorf("bolt memory: %w", err)
		}
		return m, nil
	case "redis":
		if config.RedisClient == nil {
			return nil, fmt.Errorf("MEMORY_BACKEND=redis requires REDIS_ADDR")
		}
		return memory.NewCacheMemory(cache.NewRedisCache(config.RedisClient, "bikeshop:"), cfg.MemoryTTL), nil
	default:
		return memory.Noop{}, nil
	}
}
