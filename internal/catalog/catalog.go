// Package catalog provides read-only access to workout templates and the
// exercise catalog. The session core consumes templates by id when starting
// a session and never mutates them.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrWorkoutNotFound is returned when no template has the given id.
var ErrWorkoutNotFound = errors.New("workout template not found")

// Template describes a workout: an ordered list of exercise plans.
type Template struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Exercises []ExercisePlan `json:"exercises"`
}

// ExercisePlan is one planned exercise within a template.
type ExercisePlan struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	Name        string    `json:"name"`
	Notes       string    `json:"notes,omitempty"`
	RestSeconds int       `json:"rest_seconds,omitempty"`
	OrderIndex  int       `json:"order_index"`
	Sets        []SetPlan `json:"sets"`
}

// SetPlan is one planned set: target weight and reps.
type SetPlan struct {
	WeightKg   float64 `json:"weight_kg"`
	Reps       int     `json:"reps"`
	OrderIndex int     `json:"order_index"`
}

// WorkoutSource serves workout templates.
type WorkoutSource interface {
	// Workout returns the template, or ErrWorkoutNotFound.
	Workout(ctx context.Context, id uuid.UUID) (*Template, error)

	// Workouts lists all templates, name order.
	Workouts(ctx context.Context) ([]*Template, error)
}
