package session

import (
	"time"

	"github.com/google/uuid"
)

// StoreType names a session store driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// NewStore creates a Store for the given driver.
// The Redis driver requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ttl <= 0 {
		cfg.ttl = DefaultTTL
	}
	if cfg.clock == nil {
		cfg.clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.newID == nil {
		cfg.newID = uuid.NewString
	}

	switch storeType {
	case StoreTypeMemory, "":
		return newMemoryStore(cfg), nil

	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		if cfg.redisPrefix == "" {
			cfg.redisPrefix = "session:"
		}
		return newRedisStore(cfg), nil

	default:
		return nil, ErrInvalidStoreType
	}
}
