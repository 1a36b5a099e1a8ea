package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func sampleSession() *Session {
	now := time.Now()
	completed := now.Add(-time.Minute)
	return &Session{
		ID:        uuid.New(),
		WorkoutID: uuid.New(),
		StartDate: now.Add(-30 * time.Minute),
		State:     StateActive,
		Exercises: []Exercise{
			{
				ID:         uuid.New(),
				ExerciseID: uuid.New(),
				OrderIndex: 0,
				Sets: []Set{
					{ID: uuid.New(), WeightKg: 100, Reps: 8, Completed: true, CompletedAt: &completed, OrderIndex: 0},
					{ID: uuid.New(), WeightKg: 100, Reps: 8, OrderIndex: 1},
				},
			},
			{
				ID:         uuid.New(),
				ExerciseID: uuid.New(),
				OrderIndex: 1,
				Sets: []Set{
					{ID: uuid.New(), WeightKg: 60, Reps: 12, OrderIndex: 0},
				},
			},
		},
	}
}

// TestDerivedValues checks volume and progress aggregation across the
// session. Only completed sets count toward volume.
func TestDerivedValues(t *testing.T) {
	s := sampleSession()

	if got := s.TotalSets(); got != 3 {
		t.Errorf("TotalSets() = %d, want 3", got)
	}
	if got := s.CompletedSets(); got != 1 {
		t.Errorf("CompletedSets() = %d, want 1", got)
	}
	if got := s.Progress(); got != 1.0/3.0 {
		t.Errorf("Progress() = %v, want 1/3", got)
	}
	if got := s.TotalVolume(); got != 800 {
		t.Errorf("TotalVolume() = %v, want 800", got)
	}
	if got := s.Exercises[0].Sets[0].Volume(); got != 800 {
		t.Errorf("set Volume() = %v, want 800", got)
	}
}

// TestProgressEmptySession verifies progress is 0, not NaN, with no sets.
func TestProgressEmptySession(t *testing.T) {
	s := &Session{ID: uuid.New(), State: StateActive}
	if got := s.Progress(); got != 0 {
		t.Errorf("Progress() = %v, want 0", got)
	}
}

// TestSortChildren verifies order index, not slice position, decides
// ordering: storage returns children unordered.
func TestSortChildren(t *testing.T) {
	s := &Session{
		Exercises: []Exercise{
			{ID: uuid.New(), OrderIndex: 2},
			{
				ID:         uuid.New(),
				OrderIndex: 0,
				Sets: []Set{
					{ID: uuid.New(), OrderIndex: 1},
					{ID: uuid.New(), OrderIndex: 0},
				},
			},
			{ID: uuid.New(), OrderIndex: 1},
		},
	}

	s.SortChildren()

	for i, e := range s.Exercises {
		if e.OrderIndex != i {
			t.Errorf("exercise[%d].OrderIndex = %d, want %d", i, e.OrderIndex, i)
		}
	}
	for i, set := range s.Exercises[0].Sets {
		if set.OrderIndex != i {
			t.Errorf("set[%d].OrderIndex = %d, want %d", i, set.OrderIndex, i)
		}
	}
}

// TestCloneDetached verifies that mutating a clone never reaches the
// original, including through pointer-typed fields.
func TestCloneDetached(t *testing.T) {
	s := sampleSession()
	c := s.Clone()

	c.State = StateCompleted
	c.Exercises[0].Sets[1].Completed = true
	now := time.Now()
	c.Exercises[0].Sets[0].CompletedAt = &now
	c.EndDate = &now

	if s.State != StateActive {
		t.Error("clone mutation changed original state")
	}
	if s.Exercises[0].Sets[1].Completed {
		t.Error("clone mutation changed original set")
	}
	if s.EndDate != nil {
		t.Error("clone mutation changed original end date")
	}
	if s.Exercises[0].Sets[0].CompletedAt == c.Exercises[0].Sets[0].CompletedAt {
		t.Error("clone shares CompletedAt pointer with original")
	}
}

// TestCloneNil verifies Clone on a nil session is a nil session.
func TestCloneNil(t *testing.T) {
	var s *Session
	if s.Clone() != nil {
		t.Error("Clone() on nil = non-nil")
	}
}

// TestDuration verifies duration uses the end date when set and the given
// now otherwise.
func TestDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	now := start.Add(20 * time.Minute)

	open := &Session{StartDate: start}
	if got := open.Duration(now); got != 20*time.Minute {
		t.Errorf("open Duration = %v, want 20m", got)
	}

	closed := &Session{StartDate: start, EndDate: &end}
	if got := closed.Duration(now); got != 45*time.Minute {
		t.Errorf("closed Duration = %v, want 45m", got)
	}
}

// TestStateValid pins the three legal state literals.
func TestStateValid(t *testing.T) {
	for _, s := range []SessionState{StateActive, StatePaused, StateCompleted} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if SessionState("archived").Valid() {
		t.Error(`"archived" should not be valid`)
	}
}
