// Package cache memoises JSON values in Redis or in process.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores JSON values with a TTL. Misses are not errors.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Key joins non-empty parts with ":". Empty parts become "-" so positions stay stable.
func Key(parts ...string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		if p == "" {
			p = "-"
		}
		out[i] = p
	}
	return strings.Join(out, ":")
}
