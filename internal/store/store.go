package store

import (
	"context"
	"errors"
	"time"

	"github.com/saeid-a/StudioOnboardBack/internal/onboarding"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
	// ErrContention means an update lost every optimistic retry.
	ErrContention = errors.New("session update contention")
)

type Session struct {
	ID        string           `json:"id"`
	State     onboarding.State `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Store holds live onboarding sessions. Update serializes mutations of a
// single session; fn may run more than once on stores that retry.
type Store interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

func cloneSession(session Session) *Session {
	session.State = session.State.Clone()
	return &session
}
