package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Now().UTC()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// drivers returns every Store implementation sharing one fake clock.
func drivers(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()

	mem, err := NewStore(StoreTypeMemory, WithClock(clock.Now), WithTTL(30*time.Minute))
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rs, err := NewStore(StoreTypeRedis, WithRedisClient(client), WithClock(clock.Now), WithTTL(30*time.Minute))
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}

	return map[string]Store{"memory": mem, "redis": rs}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, store := range drivers(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			sess, err := store.Create(ctx)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if sess.ID == "" || sess.State != conversation.StateGreeting {
				t.Fatalf("unexpected new session %+v", sess)
			}

			got, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			got.AddMessage(conversation.RoleUser, "hello")
			got.UpdateState(conversation.StateDiscovery)
			if err := store.Update(ctx, got); err != nil {
				t.Fatalf("Update: %v", err)
			}

			again, err := store.Get(ctx, sess.ID)
			if err != nil {
				t.Fatalf("Get after update: %v", err)
			}
			if again.State != conversation.StateDiscovery || len(again.Messages) != 1 {
				t.Fatalf("update not persisted: %+v", again)
			}

			if n, _ := store.Count(ctx); n != 1 {
				t.Fatalf("Count = %d, want 1", n)
			}

			existed, err := store.Delete(ctx, sess.ID)
			if err != nil || !existed {
				t.Fatalf("Delete = %v, %v", existed, err)
			}
			existed, _ = store.Delete(ctx, sess.ID)
			if existed {
				t.Fatal("second Delete reported an existing session")
			}
			if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after delete err = %v", err)
			}
		})
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()

	for name, store := range drivers(t, newFakeClock()) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create(ctx)
			got, _ := store.Get(ctx, sess.ID)
			got.AddMessage(conversation.RoleUser, "not saved")

			fresh, _ := store.Get(ctx, sess.ID)
			if len(fresh.Messages) != 0 {
				t.Fatal("mutation leaked into the store without Update")
			}
		})
	}
}

func TestStoreExpiryHasNoResurrection(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	for name, store := range drivers(t, clock) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create(ctx)
			clock.Advance(31 * time.Minute)
			defer clock.Advance(-31 * time.Minute)

			if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("first Get after ttl err = %v", err)
			}
			if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("second Get after ttl err = %v", err)
			}
			if n, _ := store.Count(ctx); n != 0 {
				t.Fatalf("expired session still counted: %d", n)
			}
			if err := store.Update(ctx, sess); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Update of an expired session err = %v", err)
			}
		})
	}
}

func TestStoreUpdateStampsStoreClock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC)}

	for name, store := range drivers(t, clock) {
		t.Run(name, func(t *testing.T) {
			sess, _ := store.Create(ctx)
			sess.AddMessage("user", "hi")
			if err := store.Update(ctx, sess); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if !sess.LastActive.Equal(clock.Now()) {
				t.Fatalf("LastActive = %v, want %v", sess.LastActive, clock.Now())
			}

			clock.Advance(31 * time.Minute)
			defer clock.Advance(-31 * time.Minute)
			if _, err := store.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after ttl on store clock err = %v", err)
			}
		})
	}
}

func TestStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	for name, store := range drivers(t, clock) {
		t.Run(name, func(t *testing.T) {
			stale, _ := store.Create(ctx)
			fresh, _ := store.Create(ctx)

			clock.Advance(31 * time.Minute)
			defer clock.Advance(-31 * time.Minute)

			// update keeps the session alive at the advanced time
			if err := store.Update(ctx, fresh); err != nil {
				t.Fatalf("Update: %v", err)
			}

			removed, err := store.CleanupExpired(ctx)
			if err != nil {
				t.Fatalf("CleanupExpired: %v", err)
			}
			if removed != 1 {
				t.Fatalf("removed = %d, want 1", removed)
			}
			if _, err := store.Get(ctx, stale.ID); !errors.Is(err, ErrNotFound) {
				t.Fatal("stale session survived cleanup")
			}
			if _, err := store.Get(ctx, fresh.ID); err != nil {
				t.Fatalf("fresh session removed: %v", err)
			}
		})
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(StoreTypeMemory)

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Create(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			for j := 0; j < 10; j++ {
				got, err := store.Get(ctx, sess.ID)
				if err != nil {
					t.Error(err)
					return
				}
				got.AddMessage(conversation.RoleUser, "ping")
				if err := store.Update(ctx, got); err != nil {
					t.Error(err)
					return
				}
			}
			ids <- sess.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		sess, err := store.Get(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if len(sess.Messages) != 10 {
			t.Fatalf("session %s has %d messages, want 10", id, len(sess.Messages))
		}
	}
	if n, _ := store.Count(ctx); n != 50 {
		t.Fatalf("Count = %d, want 50", n)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(StoreTypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("redis without client err = %v", err)
	}
	if _, err := NewStore(StoreType("etcd")); !errors.Is(err, ErrInvalidStoreType) {
		t.Fatalf("unknown driver err = %v", err)
	}
}
