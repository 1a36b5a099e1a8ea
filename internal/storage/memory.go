package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
)

// Memory is an in-memory SessionRepository. It backs tests and the
// --in-memory dev mode. Stored values are deep copies, so callers never
// share mutable state with the repository; children are deliberately kept
// unordered internally to mimic the durable store's lack of ordering.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
}

var _ SessionRepository = (*Memory)(nil)

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *Memory) Save(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *Memory) Update(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}

	// Merge in place by id, matching the durable implementation: update
	// matched children, drop absent ones, append new ones.
	stored.WorkoutID = s.WorkoutID
	stored.WorkoutName = s.WorkoutName
	stored.StartDate = s.StartDate
	stored.State = s.State
	stored.EndDate = nil
	if s.EndDate != nil {
		end := *s.EndDate
		stored.EndDate = &end
	}

	merged := make([]domain.Exercise, 0, len(s.Exercises))
	for _, e := range s.Exercises {
		if existing := stored.FindExercise(e.ID); existing != nil {
			existing.ExerciseID = e.ExerciseID
			existing.Notes = e.Notes
			existing.RestSeconds = e.RestSeconds
			existing.OrderIndex = e.OrderIndex
			existing.Sets = cloneSets(e.Sets)
			merged = append(merged, *existing)
		} else {
			clone := e
			clone.Sets = cloneSets(e.Sets)
			merged = append(merged, clone)
		}
	}
	stored.Exercises = merged
	return nil
}

func cloneSets(incoming []domain.Set) []domain.Set {
	out := make([]domain.Set, 0, len(incoming))
	for _, s := range incoming {
		clone := s
		if s.CompletedAt != nil {
			at := *s.CompletedAt
			clone.CompletedAt = &at
		}
		out = append(out, clone)
	}
	return out
}

func (m *Memory) Fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	out := s.Clone()
	out.SortChildren()
	return out, nil
}

func (m *Memory) FetchActive(ctx context.Context) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active *domain.Session
	for _, s := range m.sessions {
		if s.State != domain.StateActive {
			continue
		}
		if active != nil {
			return nil, ErrMultipleActive
		}
		active = s
	}
	if active == nil {
		return nil, nil
	}
	out := active.Clone()
	out.SortChildren()
	return out, nil
}

func (m *Memory) FetchByWorkout(ctx context.Context, workoutID uuid.UUID) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*domain.Session
	for _, s := range m.sessions {
		if s.WorkoutID == workoutID {
			out := s.Clone()
			out.SortChildren()
			result = append(result, out)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *Memory) FetchRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out := s.Clone()
		out.SortChildren()
		result = append(result, out)
	}
	sortNewestFirst(result)
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[uuid.UUID]*domain.Session)
	return nil
}

func sortNewestFirst(sessions []*domain.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartDate.After(sessions[j].StartDate)
	})
}
