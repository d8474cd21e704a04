package memory

import (
	"context"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/cache"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

const cacheNamespace = "memory"

// CacheMemory keeps records in a shared cache such as Redis, expiring after ttl.
type CacheMemory struct {
	cache cache.Cache
	ttl   time.Duration
}

var _ Memory = (*CacheMemory)(nil)

func NewCacheMemory(c cache.Cache, ttl time.Duration) *CacheMemory {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CacheMemory{cache: c, ttl: ttl}
}

func (m *CacheMemory) Recall(ctx context.Context, userID string) (string, error) {
	var rec Record
	hit, err := m.cache.GetJSON(ctx, cache.Key(cacheNamespace, userID), &rec)
	if err != nil {
		return "", err
	}
	if !hit || rec.Summary == "" {
		return "", ErrNoMemory
	}
	return rec.Summary, nil
}

func (m *CacheMemory) Save(ctx context.Context, userID string, messages []conversation.Message) error {
	summary := Summarize(messages)
	if userID == "" || summary == "" {
		return nil
	}
	return m.cache.SetJSON(ctx, cache.Key(cacheNamespace, userID), Record{Summary: summary, UpdatedAt: time.Now().UTC()}, m.ttl)
}

func (m *CacheMemory) Close() error { return nil }
