// Package storage persists workout sessions. The durable implementation is
// Postgres; Memory backs tests and the in-memory dev mode. Both follow the
// same contract: reads return detached values with children sorted by order
// index, and absence on a plain read is a nil result, not an error.
package storage

import (
	"context"
	"errors"

	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned by mutating operations addressing a
	// session that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrMultipleActive is returned by FetchActive when more than one
	// session is in the active state. That is an integrity violation; the
	// repository fails fast rather than picking one.
	ErrMultipleActive = errors.New("multiple active sessions")
)

// SessionRepository stores workout sessions with their nested exercises and
// sets.
type SessionRepository interface {
	// Save inserts a brand-new session with all of its children.
	Save(ctx context.Context, s *domain.Session) error

	// Update merges the session into the stored record in place: scalar
	// fields are replaced, child rows are matched by id (updated, deleted
	// when absent from s, inserted when new), so surviving children keep
	// their identities. Returns ErrSessionNotFound when no record exists.
	Update(ctx context.Context, s *domain.Session) error

	// Fetch returns the session with children sorted by order index, or
	// (nil, nil) when absent.
	Fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// FetchActive returns the single session in the active state, or
	// (nil, nil) when there is none. Paused sessions do not count.
	FetchActive(ctx context.Context) (*domain.Session, error)

	// FetchByWorkout returns all sessions for one workout template,
	// newest start first.
	FetchByWorkout(ctx context.Context, workoutID uuid.UUID) ([]*domain.Session, error)

	// FetchRecent returns up to limit sessions, newest start first.
	FetchRecent(ctx context.Context, limit int) ([]*domain.Session, error)

	// Delete removes one session and its children, or ErrSessionNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAll removes every session record.
	DeleteAll(ctx context.Context) error
}
