package catalog

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// Memory is a WorkoutSource for tests and the --in-memory dev mode.
type Memory struct {
	templates map[uuid.UUID]*Template
}

var _ WorkoutSource = (*Memory)(nil)

// NewMemory returns a source holding the given templates.
func NewMemory(templates ...*Template) *Memory {
	m := &Memory{templates: make(map[uuid.UUID]*Template, len(templates))}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *Memory) Workout(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return t, nil
}

func (m *Memory) Workouts(ctx context.Context) ([]*Template, error) {
	result := make([]*Template, 0, len(m.templates))
	for _, t := range m.templates {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DefaultTemplate is the seed workout used by the --in-memory dev mode:
// three exercises of three sets each.
func DefaultTemplate() *Template {
	id := uuid.New()
	return &Template{
		ID:   id,
		Name: "Push Day",
		Exercises: []ExercisePlan{
			{
				ExerciseID:  uuid.New(),
				Name:        "Bench Press",
				RestSeconds: 90,
				OrderIndex:  0,
				Sets: []SetPlan{
					{WeightKg: 100, Reps: 8, OrderIndex: 0},
					{WeightKg: 100, Reps: 8, OrderIndex: 1},
					{WeightKg: 100, Reps: 8, OrderIndex: 2},
				},
			},
			{
				ExerciseID:  uuid.New(),
				Name:        "Overhead Press",
				Notes:       "Focus on form",
				RestSeconds: 90,
				OrderIndex:  1,
				Sets: []SetPlan{
					{WeightKg: 80, Reps: 10, OrderIndex: 0},
					{WeightKg: 80, Reps: 10, OrderIndex: 1},
					{WeightKg: 80, Reps: 10, OrderIndex: 2},
				},
			},
			{
				ExerciseID:  uuid.New(),
				Name:        "Incline Dumbbell Press",
				RestSeconds: 60,
				OrderIndex:  2,
				Sets: []SetPlan{
					{WeightKg: 60, Reps: 12, OrderIndex: 0},
					{WeightKg: 60, Reps: 12, OrderIndex: 1},
					{WeightKg: 60, Reps: 12, OrderIndex: 2},
				},
			},
		},
	}
}
