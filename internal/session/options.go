package session

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a session may stay idle before it expires.
const DefaultTTL = 30 * time.Minute

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	ttl         time.Duration
	clock       func() time.Time
	newID       func() string
	redisClient *redis.Client
	redisPrefix string
}

// WithTTL sets the idle time after which sessions expire.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.ttl = ttl
	}
}

// WithClock replaces the time source used for expiry checks.
func WithClock(clock func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.clock = clock
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) StoreOption {
	return func(c *storeConfig) {
		c.newID = fn
	}
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisPrefix sets the key prefix used by the Redis store.
func WithRedisPrefix(prefix string) StoreOption {
	return func(c *storeConfig) {
		c.redisPrefix = prefix
	}
}
