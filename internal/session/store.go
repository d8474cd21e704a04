package session

import (
	"context"
	"errors"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
)

var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidStoreType is returned by NewStore for an unknown driver name.
	ErrInvalidStoreType = errors.New("invalid session store type")

	// ErrInvalidConfig is returned when a driver is missing a required option.
	ErrInvalidConfig = errors.New("invalid session store configuration")
)

// Store holds conversation sessions keyed by id.
// Every method is a single atomic operation; callers own the sessions they get back.
type Store interface {
	// Create inserts a fresh GREETING session with a new unique id.
	Create(ctx context.Context) (*conversation.Session, error)

	// Get returns a copy of the session.
	// Expired sessions are removed on read and reported as ErrNotFound.
	Get(ctx context.Context, id string) (*conversation.Session, error)

	// Update replaces the stored session, last writer wins.
	// It stamps LastActive with the store's clock.
	// Returns ErrNotFound if the session is no longer stored.
	Update(ctx context.Context, s *conversation.Session) error

	// Delete removes a session and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// CleanupExpired removes every session idle for longer than the TTL.
	// Expiry is checked again at removal time.
	CleanupExpired(ctx context.Context) (int, error)

	// Count returns the number of stored sessions, expired or not.
	Count(ctx context.Context) (int, error)

	// Close releases the store's resources.
	Close() error
}
