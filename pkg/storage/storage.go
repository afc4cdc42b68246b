package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// ErrLockNotHeld is returned by Unlock when the token does not own the lock.
var ErrLockNotHeld = errors.New("lock not held")

// Storage is the durable slot adventures are saved in, plus the
// per-adventure lock that keeps one generation in flight at a time.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Adventure operations. LoadAdventure returns nil, nil when the id is unknown.
	SaveAdventure(ctx context.Context, a *adventure.Adventure) error
	LoadAdventure(ctx context.Context, id uuid.UUID) (*adventure.Adventure, error)
	DeleteAdventure(ctx context.Context, id uuid.UUID) error

	// Generation lock. TryLock returns ok=false without error when another
	// owner holds the lock; the returned token is needed to Unlock.
	TryLock(ctx context.Context, id uuid.UUID) (token string, ok bool, err error)
	Unlock(ctx context.Context, id uuid.UUID, token string) error
	IsLocked(ctx context.Context, id uuid.UUID) (bool, error)
}
