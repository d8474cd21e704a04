package session

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

// memoryStore implements Store with a mutex-guarded map.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*conversation.Session

	ttl   time.Duration
	clock func() time.Time
	newID func() string
}

var _ Store = (*memoryStore)(nil)

func newMemoryStore(cfg *storeConfig) *memoryStore {
	return &memoryStore{
		sessions: make(map[string]*conversation.Session),
		ttl:      cfg.ttl,
		clock:    cfg.clock,
		newID:    cfg.newID,
	}
}

// Create implements Store.
func (s *memoryStore) Create(ctx context.Context) (*conversation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		id = s.newID()
	}

	sess := conversation.NewSession(id, s.clock())
	s.sessions[id] = sess
	return sess.Clone(), nil
}

// Get implements Store.
func (s *memoryStore) Get(ctx context.Context, id string) (*conversation.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.IsExpired(s.ttl, s.clock()) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Update implements Store.
func (s *memoryStore) Update(ctx context.Context, sess *conversation.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[sess.ID]
	if !ok {
		return ErrNotFound
	}
	now := s.clock()
	if stored.IsExpired(s.ttl, now) {
		delete(s.sessions, sess.ID)
		return ErrNotFound
	}
	sess.LastActive = now
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Delete implements Store.
func (s *memoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

// CleanupExpired implements Store.
func (s *memoryStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired(s.ttl, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Count implements Store.
func (s *memoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions), nil
}

// Close implements Store.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*conversation.Session)
	return nil
}
