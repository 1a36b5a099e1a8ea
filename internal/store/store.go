// Package store holds the presentation-facing session coordinator. It owns
// the single current-session value, applies optimistic local mutations, and
// reconciles them against the repository's authoritative state.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/claude/ironlog/internal/domain"
	"github.com/claude/ironlog/internal/session"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
)

// ErrNoCurrentSession is recorded when an operation needs a current session
// and none is loaded.
var ErrNoCurrentSession = errors.New("no current session")

// EventKind identifies a store notification.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventSetCompleted EventKind = "set_completed"
	EventPaused       EventKind = "paused"
	EventResumed      EventKind = "resumed"
	EventEnded        EventKind = "ended"
	EventCleared      EventKind = "cleared"
)

// Event is published to subscribers after each successful mutation.
// Session is a detached copy (nil for EventCleared).
type Event struct {
	Kind    EventKind
	Session *domain.Session
}

// RestNotifier is told about rest hints after a successful set completion.
// The rest timer lives outside the session core; the store only notifies.
type RestNotifier interface {
	RestAfterSet(exerciseID uuid.UUID, d time.Duration)
}

// Store coordinates the active workout session for the presentation layer.
//
// All mutations are serialized on one mutex: the store is the single
// logical owner of the current-session slot, and at most one mutation per
// session is in flight at a time. The store is an error sink — operations
// record failures in the error slot instead of returning them; callers
// poll Err.
type Store struct {
	mu sync.Mutex

	svc  *session.Service
	repo storage.SessionRepository
	rest RestNotifier

	current    *domain.Session
	loading    bool
	lastErr    error
	successMsg string

	msgTimer   *time.Timer
	msgGen     uint64
	clearTimer *time.Timer
	clearGen   uint64

	subs []chan Event

	messageTTL time.Duration
	endHold    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithRestNotifier wires a rest-timer collaborator.
func WithRestNotifier(r RestNotifier) Option {
	return func(s *Store) { s.rest = r }
}

// WithTimings overrides the success-message TTL and the end-of-session hold
// delay, for tests.
func WithTimings(messageTTL, endHold time.Duration) Option {
	return func(s *Store) {
		s.messageTTL = messageTTL
		s.endHold = endHold
	}
}

// New creates a Store over the use-case service and the repository. The
// repository is used directly for restoration and reconciliation reads.
func New(svc *session.Service, repo storage.SessionRepository, opts ...Option) *Store {
	s := &Store{
		svc:        svc,
		repo:       repo,
		messageTTL: 3 * time.Second,
		endHold:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns a detached copy of the current session, or nil.
func (s *Store) Current() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Loading reports whether an operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last recorded error. Cleared at the start of each
// operation.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SuccessMessage returns the transient success message, empty after it
// auto-clears.
func (s *Store) SuccessMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successMsg
}

// Subscribe returns a channel of store events. Slow subscribers miss
// events rather than blocking mutations.
func (s *Store) Subscribe() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Event, 16)
	s.subs = append(s.subs, ch)
	return ch
}

// StartSession starts a session from a workout template and makes it
// current.
func (s *Store) StartSession(ctx context.Context, workoutID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginOp()
	defer s.endOp()

	sess, err := s.svc.Start(ctx, workoutID)
	if err != nil {
		s.lastErr = err
		return
	}
	s.cancelPendingClear()
	s.current = sess.Clone()
	s.showSuccess("Workout started")
	s.publish(EventStarted, s.current)
}

// LoadActiveSession restores the current session from the repository,
// bypassing the use cases. Called on launch.
func (s *Store) LoadActiveSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginOp()
	defer s.endOp()

	sess, err := s.repo.FetchActive(ctx)
	if err != nil {
		s.lastErr = err
		return
	}
	s.cancelPendingClear()
	s.current = sess
}

// CompleteSet marks a set of the current session complete. The local copy
// is mutated immediately so callers observe instant feedback, then the use
// case persists the change and the session is re-fetched from the
// repository. The authoritative read always supersedes the optimistic
// guess — including after a failure, which rolls the local copy back to
// persisted truth.
func (s *Store) CompleteSet(ctx context.Context, exerciseID, setID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil

	if s.current == nil {
		s.lastErr = ErrNoCurrentSession
		return
	}
	sessionID := s.current.ID

	restSeconds := s.applyLocalCompletion(exerciseID, setID)

	err := s.svc.CompleteSet(ctx, sessionID, exerciseID, setID)
	if err != nil {
		s.lastErr = err
	}
	s.refreshLocked(ctx, sessionID)
	if err != nil {
		return
	}

	if s.rest != nil && restSeconds > 0 {
		s.rest.RestAfterSet(exerciseID, time.Duration(restSeconds)*time.Second)
	}
	s.publish(EventSetCompleted, s.current.Clone())
}

// EndSession completes the current session. The completed session stays
// current for a short hold so callers can show a summary, then the slot
// clears.
func (s *Store) EndSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginOp()
	defer s.endOp()

	if s.current == nil {
		s.lastErr = ErrNoCurrentSession
		return
	}

	sess, err := s.svc.End(ctx, s.current.ID)
	if err != nil {
		s.lastErr = err
		return
	}
	s.current = sess.Clone()
	s.showSuccess("Workout completed")
	s.publish(EventEnded, s.current.Clone())

	s.cancelPendingClear()
	gen := s.clearGen
	s.clearTimer = time.AfterFunc(s.endHold, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.clearGen != gen {
			return
		}
		s.current = nil
		s.publish(EventCleared, nil)
	})
}

// cancelPendingClear invalidates any deferred end-of-session clear. Called
// whenever a new value takes the current slot, so a stale clear that
// already fired and is waiting on the mutex cannot wipe it.
func (s *Store) cancelPendingClear() {
	s.clearGen++
	if s.clearTimer != nil {
		s.clearTimer.Stop()
	}
}

// PauseSession pauses the current session.
func (s *Store) PauseSession(ctx context.Context) {
	s.lifecycleOp(ctx, EventPaused, "Workout paused", s.svc.Pause)
}

// ResumeSession resumes the current session.
func (s *Store) ResumeSession(ctx context.Context) {
	s.lifecycleOp(ctx, EventResumed, "Workout resumed", s.svc.Resume)
}

func (s *Store) lifecycleOp(ctx context.Context, kind EventKind, msg string, op func(context.Context, uuid.UUID) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil

	if s.current == nil {
		s.lastErr = ErrNoCurrentSession
		return
	}
	sessionID := s.current.ID

	if err := op(ctx, sessionID); err != nil {
		s.lastErr = err
		return
	}
	s.refreshLocked(ctx, sessionID)
	s.showSuccess(msg)
	s.publish(kind, s.current.Clone())
}

// Refresh replaces the current session with a fresh repository read.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.refreshLocked(ctx, s.current.ID)
}

// Close cancels outstanding timers and closes subscriber channels.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.msgTimer != nil {
		s.msgTimer.Stop()
	}
	if s.clearTimer != nil {
		s.clearTimer.Stop()
	}
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// applyLocalCompletion performs the optimistic in-memory mutation and
// returns the exercise's rest hint (0 when none or when lookups miss; a
// miss is corrected by the reconciling re-fetch, not reported here).
func (s *Store) applyLocalCompletion(exerciseID, setID uuid.UUID) int {
	ex := s.current.FindExercise(exerciseID)
	if ex == nil {
		return 0
	}
	set := ex.FindSet(setID)
	if set == nil {
		return 0
	}
	now := time.Now()
	set.Completed = true
	set.CompletedAt = &now
	return ex.RestSeconds
}

func (s *Store) refreshLocked(ctx context.Context, id uuid.UUID) {
	sess, err := s.repo.Fetch(ctx, id)
	if err != nil {
		s.lastErr = err
		return
	}
	s.current = sess
}

func (s *Store) beginOp() {
	s.loading = true
	s.lastErr = nil
}

func (s *Store) endOp() {
	s.loading = false
}

func (s *Store) showSuccess(msg string) {
	s.successMsg = msg
	// A new message invalidates any pending clear. Stopping the timer is
	// not enough: a fired timer's goroutine may already be waiting on the
	// mutex, so the clear also checks the generation.
	s.msgGen++
	gen := s.msgGen
	if s.msgTimer != nil {
		s.msgTimer.Stop()
	}
	s.msgTimer = time.AfterFunc(s.messageTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.msgGen != gen {
			return
		}
		s.successMsg = ""
	})
}

func (s *Store) publish(kind EventKind, sess *domain.Session) {
	ev := Event{Kind: kind, Session: sess}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
