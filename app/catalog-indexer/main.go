// Command catalog-indexer loads the product catalog and FAQ and writes them
// into the configured vector backend (pgvector or qdrant). With -publish it
// also uploads the normalised files to a gs:// prefix.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/bikeshop-agent/config"
	"github.com/yoockh/bikeshop-agent/internal/bootstrap"
	"github.com/yoockh/bikeshop-agent/internal/logger"
)

func main() {
	_ = godotenv.Load()

	products := flag.String("products", "", "product catalog path or gs:// URI (default PRODUCT_CATALOG_PATH)")
	faq := flag.String("faq", "", "FAQ path or gs:// URI (default FAQ_PATH)")
	backend := flag.String("backend", "", "pgvector or qdrant (default RETRIEVAL_BACKEND)")
	publish := flag.String("publish", "", "gs://bucket/dir to upload the normalised catalog to")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	if *products != "" {
		cfg.ProductCatalogPath = *products
	}
	if *faq != "" {
		cfg.FAQPath = *faq
	}
	if *backend != "" {
		cfg.RetrievalBackend = *backend
	}
	log := logger.New(cfg.LogLevel)

	indexing := cfg.RetrievalBackend != "memory"
	if !indexing && *publish == "" {
		log.Fatal("nothing to do: RETRIEVAL_BACKEND is memory (use -backend pgvector|qdrant or -publish)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cat, err := bootstrap.LoadCatalog(ctx, cfg)
	if err != nil {
		log.Fatalf("catalog load error: %v", err)
	}

	if *publish != "" {
		productsURI, faqURI, err := bootstrap.Publish(ctx, cfg, cat, *publish)
		if err != nil {
			log.Fatalf("publish error: %v", err)
		}
		log.WithFields(logrus.Fields{"products": productsURI, "faq": faqURI}).Info("catalog published")
	}

	if indexing {
		if cfg.RetrievalBackend == "pgvector" {
			if err := config.InitPostgres(log); err != nil {
				log.Fatalf("PostgreSQL init error: %v", err)
			}
		}
		idx, err := bootstrap.Backend(ctx, cfg)
		if err != nil {
			log.Fatalf("backend error: %v", err)
		}
		defer idx.Close()

		if err := bootstrap.Index(ctx, idx, cat, log); err != nil {
			log.Fatalf("index error: %v", err)
		}
	}
	log.WithFields(logrus.Fields{
		"backend":  cfg.RetrievalBackend,
		"products": cfg.ProductCatalogPath,
		"faq":      cfg.FAQPath,
	}).Info("catalog indexer finished")
}
