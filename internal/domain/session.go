package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a workout session.
type SessionState string

const (
	StateActive    SessionState = "active"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
)

// Valid reports whether s is one of the three known states.
func (s SessionState) Valid() bool {
	switch s {
	case StateActive, StatePaused, StateCompleted:
		return true
	}
	return false
}

// Session is one instance of performing a workout. It is a detached value:
// mutations are only made durable by writing it back through the repository.
type Session struct {
	ID          uuid.UUID    `json:"id"`
	WorkoutID   uuid.UUID    `json:"workout_id"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     *time.Time   `json:"end_date,omitempty"`
	Exercises   []Exercise   `json:"exercises"`
	State       SessionState `json:"state"`
	WorkoutName string       `json:"workout_name,omitempty"`
}

// Exercise is one movement's worth of sets within a session. ExerciseID
// references the external exercise catalog; the catalog is never mutated
// through this type.
type Exercise struct {
	ID         uuid.UUID `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Sets       []Set     `json:"sets"`
	Notes      string    `json:"notes,omitempty"`
	// RestSeconds is the rest hint applied after completing a set in this
	// exercise. Zero means no hint.
	RestSeconds int `json:"rest_seconds,omitempty"`
	// OrderIndex is the authoritative sort key. Storage gives no ordering
	// guarantee, so position in the slice is never trusted on its own.
	OrderIndex int `json:"order_index"`
}

// Set is one discrete unit of weight x reps.
type Set struct {
	ID          uuid.UUID  `json:"id"`
	WeightKg    float64    `json:"weight_kg"`
	Reps        int        `json:"reps"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OrderIndex  int        `json:"order_index"`
}

// Volume is weight x reps for this set.
func (s Set) Volume() float64 {
	return s.WeightKg * float64(s.Reps)
}

// TotalSets counts all sets in the exercise.
func (e Exercise) TotalSets() int { return len(e.Sets) }

// CompletedSets counts sets marked complete.
func (e Exercise) CompletedSets() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// Progress is completed/total for this exercise, 0 when it has no sets.
func (e Exercise) Progress() float64 {
	if len(e.Sets) == 0 {
		return 0
	}
	return float64(e.CompletedSets()) / float64(len(e.Sets))
}

// TotalVolume sums volume over completed sets.
func (e Exercise) TotalVolume() float64 {
	var v float64
	for _, s := range e.Sets {
		if s.Completed {
			v += s.Volume()
		}
	}
	return v
}

// TotalSets counts all sets across the session's exercises.
func (s *Session) TotalSets() int {
	n := 0
	for _, e := range s.Exercises {
		n += len(e.Sets)
	}
	return n
}

// CompletedSets counts completed sets across the session.
func (s *Session) CompletedSets() int {
	n := 0
	for _, e := range s.Exercises {
		n += e.CompletedSets()
	}
	return n
}

// Progress is completed/total across the whole session, 0 when empty.
func (s *Session) Progress() float64 {
	total := s.TotalSets()
	if total == 0 {
		return 0
	}
	return float64(s.CompletedSets()) / float64(total)
}

// TotalVolume sums volume over all completed sets in the session.
func (s *Session) TotalVolume() float64 {
	var v float64
	for _, e := range s.Exercises {
		v += e.TotalVolume()
	}
	return v
}

// Duration is elapsed time from start to end, or to now for an open session.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndDate != nil {
		return s.EndDate.Sub(s.StartDate)
	}
	return now.Sub(s.StartDate)
}

// IsActive reports whether the session is in the active state.
func (s *Session) IsActive() bool { return s.State == StateActive }

// FindExercise returns a pointer into the session's exercise slice, or nil.
func (s *Session) FindExercise(id uuid.UUID) *Exercise {
	for i := range s.Exercises {
		if s.Exercises[i].ID == id {
			return &s.Exercises[i]
		}
	}
	return nil
}

// FindSet returns a pointer into the exercise's set slice, or nil.
func (e *Exercise) FindSet(id uuid.UUID) *Set {
	for i := range e.Sets {
		if e.Sets[i].ID == id {
			return &e.Sets[i]
		}
	}
	return nil
}

// SortChildren re-sorts exercises and their sets by order index. Callers
// must invoke this on every read path: the persistence layer stores child
// rows unordered.
func (s *Session) SortChildren() {
	sort.SliceStable(s.Exercises, func(i, j int) bool {
		return s.Exercises[i].OrderIndex < s.Exercises[j].OrderIndex
	})
	for i := range s.Exercises {
		sets := s.Exercises[i].Sets
		sort.SliceStable(sets, func(a, b int) bool {
			return sets[a].OrderIndex < sets[b].OrderIndex
		})
	}
}

// Clone returns a deep copy. The store hands out clones so callers never
// hold a live reference into shared state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.EndDate != nil {
		end := *s.EndDate
		out.EndDate = &end
	}
	out.Exercises = make([]Exercise, len(s.Exercises))
	for i, e := range s.Exercises {
		ce := e
		ce.Sets = make([]Set, len(e.Sets))
		for j, set := range e.Sets {
			cs := set
			if set.CompletedAt != nil {
				at := *set.CompletedAt
				cs.CompletedAt = &at
			}
			ce.Sets[j] = cs
		}
		out.Exercises[i] = ce
	}
	return &out
}
