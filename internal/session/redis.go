package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

const maxTxAttempts = 3

// redisStore implements Store on Redis.
// Sessions live under prefix+id as JSON with a key TTL; a sorted set at prefix+"index"
// scores every id by its last activity so sweeps and counts do not need SCAN.
type redisStore struct {
	client *redis.Client
	prefix string

	ttl   time.Duration
	clock func() time.Time
	newID func() string
}

var _ Store = (*redisStore)(nil)

func newRedisStore(cfg *storeConfig) *redisStore {
	return &redisStore{
		client: cfg.redisClient,
		prefix: cfg.redisPrefix,
		ttl:    cfg.ttl,
		clock:  cfg.clock,
		newID:  cfg.newID,
	}
}

func (s *redisStore) key(id string) string { return s.prefix + id }
func (s *redisStore) indexKey() string     { return s.prefix + "index" }

// Create implements Store.
func (s *redisStore) Create(ctx context.Context) (*conversation.Session, error) {
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		sess := conversation.NewSession(s.newID(), s.clock())
		val, err := json.Marshal(sess)
		if err != nil {
			return nil, err
		}

		ok, err := s.client.SetNX(ctx, s.key(sess.ID), val, s.ttl).Result()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.client.ZAdd(ctx, s.indexKey(), score(sess)).Err(); err != nil {
			return nil, err
		}
		return sess, nil
	}
	return nil, errors.New("session: could not allocate a unique id")
}

// Get implements Store.
func (s *redisStore) Get(ctx context.Context, id string) (*conversation.Session, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		_ = s.client.ZRem(ctx, s.indexKey(), id).Err()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess conversation.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, err
	}

	if sess.IsExpired(s.ttl, s.clock()) {
		if _, err := s.removeIfExpired(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Update implements Store.
func (s *redisStore) Update(ctx context.Context, sess *conversation.Session) error {
	key := s.key(sess.ID)
	sess.LastActive = s.clock()
	val, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, val, s.ttl)
				pipe.ZAdd(ctx, s.indexKey(), score(sess))
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return err
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	if err := s.client.ZRem(ctx, s.indexKey(), id).Err(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupExpired implements Store.
func (s *redisStore) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := s.clock().Add(-s.ttl).UnixMilli()
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		ok, err := s.removeIfExpired(ctx, id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Count implements Store.
func (s *redisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	return int(n), err
}

// Close implements Store. The Redis client is owned by the caller.
func (s *redisStore) Close() error { return nil }

// removeIfExpired deletes a session only if it is still expired when the
// transaction runs, so a concurrent turn that refreshed it wins.
func (s *redisStore) removeIfExpired(ctx context.Context, id string) (bool, error) {
	key := s.key(id)
	removed := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// key TTL already dropped it; only the index entry is left
			removed = true
			return tx.ZRem(ctx, s.indexKey(), id).Err()
		}
		if err != nil {
			return err
		}

		var sess conversation.Session
		if err := json.Unmarshal(val, &sess); err != nil {
			return err
		}
		if !sess.IsExpired(s.ttl, s.clock()) {
			return tx.ZAdd(ctx, s.indexKey(), score(&sess)).Err()
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, s.indexKey(), id)
			return nil
		})
		if err == nil {
			removed = true
		}
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return removed, err
}

func score(sess *conversation.Session) redis.Z {
	return redis.Z{Score: float64(sess.LastActive.UnixMilli()), Member: sess.ID}
}
