// Package session implements the workout-session lifecycle operations.
// Each use case is one fetch → validate → mutate → persist sequence taking
// explicit identifiers; errors surface to the caller untouched.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/domain"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
)

// Service runs the session use cases over a repository and a workout source.
type Service struct {
	repo     storage.SessionRepository
	workouts catalog.WorkoutSource
	now      func() time.Time
}

// NewService constructs a Service using the wall clock.
func NewService(repo storage.SessionRepository, workouts catalog.WorkoutSource) *Service {
	return &Service{repo: repo, workouts: workouts, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start creates a new active session from a workout template.
//
// Admission control: at most one session may be active across the whole
// store. The check is an explicit query-then-decide rather than a database
// constraint, because pausing changes which row counts as active.
func (s *Service) Start(ctx context.Context, workoutID uuid.UUID) (*domain.Session, error) {
	active, err := s.repo.FetchActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking for active session: %w", err)
	}
	if active != nil {
		return nil, ErrActiveSessionExists
	}

	tpl, err := s.workouts.Workout(ctx, workoutID)
	if err != nil {
		return nil, fmt.Errorf("loading workout template: %w", err)
	}

	sess := &domain.Session{
		ID:          uuid.New(),
		WorkoutID:   workoutID,
		StartDate:   s.now(),
		State:       domain.StateActive,
		WorkoutName: tpl.Name,
	}
	for _, plan := range tpl.Exercises {
		ex := domain.Exercise{
			ID:          uuid.New(),
			ExerciseID:  plan.ExerciseID,
			Notes:       plan.Notes,
			RestSeconds: plan.RestSeconds,
			OrderIndex:  plan.OrderIndex,
		}
		for _, sp := range plan.Sets {
			ex.Sets = append(ex.Sets, domain.Set{
				ID:         uuid.New(),
				WeightKg:   sp.WeightKg,
				Reps:       sp.Reps,
				OrderIndex: sp.OrderIndex,
			})
		}
		sess.Exercises = append(sess.Exercises, ex)
	}

	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return sess, nil
}

// CompleteSet marks one set complete and persists the whole session.
// Completing an already-completed set overwrites the timestamp; it is not
// an error.
func (s *Service) CompleteSet(ctx context.Context, sessionID, exerciseID, setID uuid.UUID) error {
	sess, err := s.fetch(ctx, sessionID)
	if err != nil {
		return err
	}

	ex := sess.FindExercise(exerciseID)
	if ex == nil {
		return ErrExerciseNotFound
	}
	set := ex.FindSet(setID)
	if set == nil {
		return ErrSetNotFound
	}

	now := s.now()
	set.Completed = true
	set.CompletedAt = &now

	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// End completes the session. Legal from active or paused; incomplete sets
// stay incomplete.
func (s *Service) End(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	sess, err := s.fetch(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.State != domain.StateActive && sess.State != domain.StatePaused {
		return nil, fmt.Errorf("%w: cannot end session in state %q", ErrInvalidState, sess.State)
	}

	now := s.now()
	sess.EndDate = &now
	sess.State = domain.StateCompleted

	if err := s.repo.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	return sess, nil
}

// Pause moves an active session to paused.
func (s *Service) Pause(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.fetch(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.State != domain.StateActive {
		return fmt.Errorf("%w: cannot pause session in state %q", ErrInvalidState, sess.State)
	}

	sess.State = domain.StatePaused
	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// Resume moves a paused session back to active.
func (s *Service) Resume(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := s.fetch(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.State != domain.StatePaused {
		return fmt.Errorf("%w: cannot resume session in state %q", ErrInvalidState, sess.State)
	}

	sess.State = domain.StateActive
	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// fetch loads a session for mutation; absence here is an error, unlike on
// plain reads.
func (s *Service) fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.repo.Fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
