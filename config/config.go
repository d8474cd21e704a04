package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig is everything the binaries read from the environment.
type AppConfig struct {
	Port     string
	LogLevel string

	SessionStore           string
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration
	MaxConversationTurns   int

	CRMURL       string
	CRMAPIKey    string
	CRMLeadsPath string
	CRMTimeout   time.Duration

	LLMProvider     string
	VertexProject   string
	VertexLocation  string
	VertexModel     string
	CredentialsFile string
	LLMTimeout      time.Duration

	RetrievalBackend  string
	RetrievalTimeout  time.Duration
	QdrantURL         string
	QdrantAPIKey      string
	QdrantProducts    string
	QdrantFAQ         string
	RetrievalCacheTTL time.Duration

	ProductCatalogPath string
	FAQPath            string

	MemoryBackend  string
	MemoryBoltPath string
	MemoryTTL      time.Duration

	CORSAllowedOrigins []string

	AdminJWTSecret   string
	AdminJWTIssuer   string
	AdminJWTAudience string

	STTEnabled  bool
	STTLanguage string
	ChatWorkers int
}

// Load reads AppConfig from the environment, applying defaults.
func Load() (*AppConfig, error) {
	c := &AppConfig{
		Port:     envOr("PORT", "8080"),
		LogLevel: envOr("LOG_LEVEL", "info"),

		SessionStore: strings.ToLower(envOr("SESSION_STORE", "memory")),

		CRMURL:       os.Getenv("CRM_API_URL"),
		CRMAPIKey:    os.Getenv("CRM_API_KEY"),
		CRMLeadsPath: envOr("CRM_LEADS_PATH", "/api/v1/leads"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", "none")),
		VertexProject:   os.Getenv("VERTEX_PROJECT"),
		VertexLocation:  envOr("VERTEX_LOCATION", "us-central1"),
		VertexModel:     os.Getenv("VERTEX_MODEL"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		RetrievalBackend: strings.ToLower(envOr("RETRIEVAL_BACKEND", "memory")),
		QdrantURL:        os.Getenv("QDRANT_URL"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantProducts:   envOr("QDRANT_PRODUCT_COLLECTION", "bike_products"),
		QdrantFAQ:        envOr("QDRANT_FAQ_COLLECTION", "bike_faq"),

		ProductCatalogPath: envOr("PRODUCT_CATALOG_PATH", "data/product_catalog.json"),
		FAQPath:            envOr("FAQ_PATH", "data/faq.txt"),

		MemoryBackend:  strings.ToLower(envOr("MEMORY_BACKEND", "none")),
		MemoryBoltPath: envOr("MEMORY_BOLT_PATH", "data/memory.db"),

		CORSAllowedOrigins: splitList(envOr("CORS_ALLOWED_ORIGINS", "*")),

		AdminJWTSecret:   os.Getenv("ADMIN_JWT_SECRET"),
		AdminJWTIssuer:   os.Getenv("ADMIN_JWT_ISSUER"),
		AdminJWTAudience: os.Getenv("ADMIN_JWT_AUDIENCE"),

		STTLanguage: envOr("STT_LANGUAGE", "en-US"),
	}

	ttlMinutes, err := intEnv("SESSION_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	c.SessionTTL = time.Duration(ttlMinutes) * time.Minute

	if c.SessionCleanupInterval, err = durationEnv("SESSION_CLEANUP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if c.MaxConversationTurns, err = intEnv("MAX_CONVERSATION_TURNS", 20); err != nil {
		return nil, err
	}
	if c.CRMTimeout, err = durationEnv("CRM_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if c.LLMTimeout, err = durationEnv("LLM_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if c.RetrievalTimeout, err = durationEnv("RETRIEVAL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if c.RetrievalCacheTTL, err = durationEnv("RETRIEVAL_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if c.MemoryTTL, err = durationEnv("MEMORY_TTL", 90*24*time.Hour); err != nil {
		return nil, err
	}
	if c.STTEnabled, err = boolEnv("STT_ENABLED", false); err != nil {
		return nil, err
	}
	if c.ChatWorkers, err = intEnv("CHAT_WORKERS", 4); err != nil {
		return nil, err
	}

	return c, c.validate()
}

func (c *AppConfig) validate() error {
	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("SESSION_STORE must be memory or redis, got %q", c.SessionStore)
	}
	switch c.RetrievalBackend {
	case "memory", "pgvector", "qdrant":
	default:
		return fmt.Errorf("RETRIEVAL_BACKEND must be memory, pgvector or qdrant, got %q", c.RetrievalBackend)
	}
	if c.RetrievalBackend == "qdrant" && c.QdrantURL == "" {
		return fmt.Errorf("QDRANT_URL is required when RETRIEVAL_BACKEND=qdrant")
	}
	switch c.MemoryBackend {
	case "none", "redis", "bolt":
	default:
		return fmt.Errorf("MEMORY_BACKEND must be none, redis or bolt, got %q", c.MemoryBackend)
	}
	switch c.LLMProvider {
	case "none":
	case "vertex":
		if c.VertexProject == "" {
			return fmt.Errorf("VERTEX_PROJECT is required when LLM_PROVIDER=vertex")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be vertex or none, got %q", c.LLMProvider)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	if c.MaxConversationTurns <= 0 {
		return fmt.Errorf("MAX_CONVERSATION_TURNS must be positive")
	}
	if c.ChatWorkers <= 0 {
		c.ChatWorkers = 1
	}
	return nil
}

// AdminEnabled reports whether admin routes can be served.
func (c *AppConfig) AdminEnabled() bool { return c.AdminJWTSecret != "" }

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// durationEnv accepts Go durations ("90s") or plain seconds ("90").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
