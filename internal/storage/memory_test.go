package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
)

func newSession(start time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.New(),
		WorkoutID: uuid.New(),
		StartDate: start,
		State:     domain.StateActive,
		Exercises: []domain.Exercise{
			{
				ID:         uuid.New(),
				ExerciseID: uuid.New(),
				OrderIndex: 1,
				Sets: []domain.Set{
					{ID: uuid.New(), WeightKg: 80, Reps: 10, OrderIndex: 1},
					{ID: uuid.New(), WeightKg: 80, Reps: 10, OrderIndex: 0},
				},
			},
			{
				ID:         uuid.New(),
				ExerciseID: uuid.New(),
				OrderIndex: 0,
				Sets: []domain.Set{
					{ID: uuid.New(), WeightKg: 100, Reps: 8, OrderIndex: 0},
				},
			},
		},
	}
}

// TestSaveFetchRoundTrip verifies save-then-fetch reproduces the session
// with children sorted by order index regardless of insertion order.
func TestSaveFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newSession(time.Now())

	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Fetch(ctx, s.ID)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got == nil {
		t.Fatal("Fetch returned nil for saved session")
	}
	if got.ID != s.ID || got.WorkoutID != s.WorkoutID || got.State != s.State {
		t.Errorf("scalar fields differ: got %+v", got)
	}
	if len(got.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(got.Exercises))
	}
	// Sorted by order index, not the order they were stored in.
	if got.Exercises[0].OrderIndex != 0 || got.Exercises[1].OrderIndex != 1 {
		t.Errorf("exercises not sorted: %d, %d", got.Exercises[0].OrderIndex, got.Exercises[1].OrderIndex)
	}
	sets := got.Exercises[1].Sets
	if len(sets) != 2 || sets[0].OrderIndex != 0 || sets[1].OrderIndex != 1 {
		t.Errorf("sets not sorted by order index: %+v", sets)
	}
}

// TestFetchAbsent verifies absence on a read is (nil, nil), not an error.
func TestFetchAbsent(t *testing.T) {
	repo := NewMemory()
	got, err := repo.Fetch(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != nil {
		t.Errorf("Fetch = %+v, want nil", got)
	}
}

// TestFetchDetached verifies the fetched value is a copy: mutating it must
// not change what a later fetch returns.
func TestFetchDetached(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newSession(time.Now())
	if err := repo.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	first, _ := repo.Fetch(ctx, s.ID)
	first.Exercises[0].Sets[0].Completed = true
	first.State = domain.StateCompleted

	second, _ := repo.Fetch(ctx, s.ID)
	if second.State != domain.StateActive {
		t.Error("mutation of fetched value leaked into store")
	}
	if second.Exercises[0].Sets[0].Completed {
		t.Error("set mutation of fetched value leaked into store")
	}
}

// TestFetchActive verifies the active query ignores paused and completed
// sessions and fails fast on an integrity violation.
func TestFetchActive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	got, err := repo.FetchActive(ctx)
	if err != nil || got != nil {
		t.Fatalf("FetchActive on empty store = (%v, %v), want (nil, nil)", got, err)
	}

	paused := newSession(time.Now())
	paused.State = domain.StatePaused
	active := newSession(time.Now())
	for _, s := range []*domain.Session{paused, active} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err = repo.FetchActive(ctx)
	if err != nil {
		t.Fatalf("FetchActive: %v", err)
	}
	if got == nil || got.ID != active.ID {
		t.Fatalf("FetchActive returned wrong session")
	}

	// A second active row is an invariant violation, not a valid result.
	second := newSession(time.Now())
	if err := repo.Save(ctx, second); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FetchActive(ctx); !errors.Is(err, ErrMultipleActive) {
		t.Errorf("FetchActive = %v, want ErrMultipleActive", err)
	}
}

// TestUpdateNotFound verifies update of a missing session is an error.
func TestUpdateNotFound(t *testing.T) {
	repo := NewMemory()
	s := newSession(time.Now())
	if err := repo.Update(context.Background(), s); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Update = %v, want ErrSessionNotFound", err)
	}
}

// TestUpdateMergePreservesChildren verifies the merge-in-place contract:
// updating with one set removed deletes exactly that set and leaves all
// other children, including their identifiers, untouched.
func TestUpdateMergePreservesChildren(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newSession(time.Now())
	if err := repo.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	keptSet := s.Exercises[0].Sets[1].ID
	removedSet := s.Exercises[0].Sets[0].ID

	mod := s.Clone()
	mod.Exercises[0].Sets = mod.Exercises[0].Sets[1:]
	if err := repo.Update(ctx, mod); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.Fetch(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	var ids []uuid.UUID
	for _, e := range got.Exercises {
		for _, set := range e.Sets {
			ids = append(ids, set.ID)
		}
	}
	if len(ids) != 2 {
		t.Fatalf("sets after merge = %d, want 2", len(ids))
	}
	for _, id := range ids {
		if id == removedSet {
			t.Error("removed set still present after merge")
		}
	}
	found := false
	for _, id := range ids {
		if id == keptSet {
			found = true
		}
	}
	if !found {
		t.Error("kept set lost its identifier during merge")
	}
}

// TestUpdateMergeCompletion verifies a completed flag survives a merge.
func TestUpdateMergeCompletion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newSession(time.Now())
	if err := repo.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	mod := s.Clone()
	now := time.Now()
	mod.Exercises[1].Sets[0].Completed = true
	mod.Exercises[1].Sets[0].CompletedAt = &now
	if err := repo.Update(ctx, mod); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.Fetch(ctx, s.ID)
	// Exercise with OrderIndex 0 sorts first on read.
	set := got.Exercises[0].Sets[0]
	if !set.Completed || set.CompletedAt == nil {
		t.Errorf("set completion lost in merge: %+v", set)
	}
}

// TestFetchRecentOrderAndLimit verifies newest-start-first ordering and the
// limit cap.
func TestFetchRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	var sessions []*domain.Session
	for i := 0; i < 3; i++ {
		s := newSession(base.Add(time.Duration(i) * time.Hour))
		s.State = domain.StateCompleted
		end := s.StartDate.Add(time.Hour)
		s.EndDate = &end
		sessions = append(sessions, s)
		if err := repo.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.FetchRecent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchRecent = %d sessions, want 2", len(got))
	}
	if got[0].ID != sessions[2].ID || got[1].ID != sessions[1].ID {
		t.Error("FetchRecent not newest-first")
	}
}

// TestFetchByWorkout verifies template filtering and ordering.
func TestFetchByWorkout(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	workoutID := uuid.New()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	older := newSession(base)
	older.WorkoutID = workoutID
	older.State = domain.StateCompleted
	newer := newSession(base.Add(time.Hour))
	newer.WorkoutID = workoutID
	newer.State = domain.StateCompleted
	other := newSession(base.Add(2 * time.Hour))

	for _, s := range []*domain.Session{older, newer, other} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.FetchByWorkout(ctx, workoutID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("FetchByWorkout = %d sessions, want 2", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Error("FetchByWorkout not newest-first")
	}
}

// TestDelete verifies delete removes the record and errors when absent.
func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	s := newSession(time.Now())
	if err := repo.Save(ctx, s); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.Fetch(ctx, s.ID); got != nil {
		t.Error("session still present after delete")
	}
	if err := repo.Delete(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete = %v, want ErrSessionNotFound", err)
	}
}

// TestDeleteAll verifies the maintenance wipe.
func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	for i := 0; i < 3; i++ {
		s := newSession(time.Now())
		s.State = domain.StateCompleted
		if err := repo.Save(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	got, err := repo.FetchRecent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("sessions after DeleteAll = %d, want 0", len(got))
	}
}
