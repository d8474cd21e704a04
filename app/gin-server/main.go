package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/bikeshop-agent/config"
	"github.com/yoockh/bikeshop-agent/internal/agent"
	"github.com/yoockh/bikeshop-agent/internal/api/handlers"
	"github.com/yoockh/bikeshop-agent/internal/api/middleware"
	"github.com/yoockh/bikeshop-agent/internal/api/routes"
	"github.com/yoockh/bikeshop-agent/internal/bootstrap"
	"github.com/yoockh/bikeshop-agent/internal/crm"
	"github.com/yoockh/bikeshop-agent/internal/intent"
	"github.com/yoockh/bikeshop-agent/internal/logger"
	"github.com/yoockh/bikeshop-agent/internal/providers/stt"
	"github.com/yoockh/bikeshop-agent/internal/rag"
	mongorepo "github.com/yoockh/bikeshop-agent/internal/repositories/mongo"
	pgrepo "github.com/yoockh/bikeshop-agent/internal/repositories/postgres"
	"github.com/yoockh/bikeshop-agent/internal/services"
	"github.com/yoockh/bikeshop-agent/internal/session"
	"github.com/yoockh/bikeshop-agent/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init Redis
	if config.RedisConfigured() {
		if err := config.InitRedis(); err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		defer config.RedisClient.Close()
		log.Info("Redis connected")
	}

	// Init PostgreSQL
	if config.PostgresConfigured() {
		if err := config.InitPostgres(log); err != nil {
			log.Fatalf("PostgreSQL init error: %v", err)
		}
		log.Info("PostgreSQL connected")
	}

	// Init MongoDB
	if config.MongoConfigured() {
		if err := config.InitMongo(ctx); err != nil {
			log.Fatalf("MongoDB init error: %v", err)
		}
		defer config.MongoClient.Disconnect(context.Background())
		if err := config.EnsureMongoIndexes(ctx); err != nil {
			log.Fatalf("MongoDB index error: %v", err)
		}
		log.Info("MongoDB connected")
	}

	// Sessions
	storeOpts := []session.StoreOption{session.WithTTL(cfg.SessionTTL)}
	if cfg.SessionStore == "redis" {
		if config.RedisClient == nil {
			log.Fatal("SESSION_STORE=redis requires REDIS_ADDR")
		}
		storeOpts = append(storeOpts, session.WithRedisClient(config.RedisClient), session.WithRedisPrefix("bikeshop:session:"))
	}
	store, err := session.NewStore(session.StoreType(cfg.SessionStore), storeOpts...)
	if err != nil {
		log.Fatalf("session store error: %v", err)
	}
	defer store.Close()

	// Retrieval
	backend, err := bootstrap.Backend(ctx, cfg)
	if err != nil {
		log.Fatalf("retrieval backend error: %v", err)
	}
	defer backend.Close()
	if cfg.RetrievalBackend == "memory" {
		cat, err := bootstrap.LoadCatalog(ctx, cfg)
		if err != nil {
			log.Fatalf("catalog load error: %v", err)
		}
		if err := bootstrap.Index(ctx, backend, cat, log); err != nil {
			log.Fatalf("catalog index error: %v", err)
		}
	}
	searcher := bootstrap.Searcher(backend, cfg)

	// LLM
	provider, err := bootstrap.LLM(ctx, cfg)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	if provider != nil {
		defer provider.Close()
	} else {
		log.Warn("no LLM configured, using keyword intents and template answers")
	}

	ragOpts := rag.Options{SearchTimeout: cfg.RetrievalTimeout, GenerateTimeout: cfg.LLMTimeout}

	// CRM
	var leadCreator crm.LeadCreator = crm.Unconfigured{}
	if cfg.CRMURL != "" {
		leadCreator = crm.NewClient(cfg.CRMURL, cfg.CRMAPIKey,
			crm.WithLeadsPath(cfg.CRMLeadsPath),
			crm.WithAttemptTimeout(cfg.CRMTimeout),
			crm.WithLogger(log),
		)
	} else {
		log.Warn("CRM_API_URL not set, leads will only be recorded locally")
	}

	// Customer memory
	mem, err := bootstrap.Memory(cfg)
	if err != nil {
		log.Fatalf("memory init error: %v", err)
	}
	defer mem.Close()

	deps := agent.Deps{
		Store:    store,
		Intents:  intent.NewClassifier(provider, log, cfg.LLMTimeout),
		Products: rag.NewProductRAG(searcher, provider, log, ragOpts),
		FAQs:     rag.NewFAQRAG(searcher, provider, log, ragOpts),
		CRM:      leadCreator,
		Memory:   mem,
		Log:      log,
		MaxTurns: cfg.MaxConversationTurns,
	}

	var leadSvc services.LeadService
	if config.PostgresDB != nil {
		leads := pgrepo.NewLeadRepo(config.PostgresDB)
		if err := leads.Migrate(ctx); err != nil {
			log.Fatalf("lead ledger migrate error: %v", err)
		}
		leadSvc = services.NewLeadService(leads, leadCreator, log)
		deps.Leads = leadSvc
	}

	var archiver agent.Archiver
	if config.MongoClient != nil {
		transcripts := mongorepo.NewTranscriptRepo(config.TranscriptsCollection())
		archiver = services.NewTranscriptArchiver(transcripts, services.DefaultTranscriptRetention)
		deps.Archive = archiver
	}

	orch := agent.New(deps)
	conversations := services.NewConversationService(store, orch, mem, archiver, log)

	// Background work
	go (&workers.Janitor{Sweeper: conversations, Interval: cfg.SessionCleanupInterval, Logger: log}).Run(ctx)

	rd := routes.Deps{
		Conversation: handlers.NewConversationHandler(conversations),
		Log:          log,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		AdminJWT: middleware.JWTConfig{
			Secret:   cfg.AdminJWTSecret,
			Issuer:   cfg.AdminJWTIssuer,
			Audience: cfg.AdminJWTAudience,
		},
	}
	if cfg.AdminEnabled() {
		rd.Admin = handlers.NewAdminHandler(conversations, leadSvc, log)
	}

	if config.RedisClient != nil {
		pool := &workers.ChatWorkerPool{
			Redis:         config.RedisClient,
			Conversations: conversations,
			NumWorkers:    cfg.ChatWorkers,
			Logger:        log,
		}
		if cfg.STTEnabled {
			speech, err := stt.NewGoogleSpeech(ctx, cfg.CredentialsFile)
			if err != nil {
				log.Fatalf("speech-to-text init error: %v", err)
			}
			defer speech.Close()
			pool.STT = speech
			pool.STTLanguage = cfg.STTLanguage
		}
		if err := pool.Start(ctx); err != nil {
			log.Fatalf("chat workers error: %v", err)
		}
		rd.WS = handlers.NewWSHandler(conversations, config.RedisClient, cfg.CORSAllowedOrigins, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(rd),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
