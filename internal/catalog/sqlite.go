package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite is a WorkoutSource backed by a local SQLite file. The schema is
// bootstrapped on open so a fresh deployment works without a separate
// migration step.
type SQLite struct {
	db *sql.DB
}

var _ WorkoutSource = (*SQLite)(nil)

// OpenSQLite opens (or creates) the catalog database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS workouts (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workout_exercises (
			workout_id   TEXT NOT NULL REFERENCES workouts(id),
			exercise_id  TEXT NOT NULL,
			name         TEXT NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			rest_seconds INTEGER NOT NULL DEFAULT 0,
			order_index  INTEGER NOT NULL,
			PRIMARY KEY (workout_id, exercise_id)
		)`,
		`CREATE TABLE IF NOT EXISTS workout_sets (
			workout_id  TEXT NOT NULL,
			exercise_id TEXT NOT NULL,
			order_index INTEGER NOT NULL,
			weight_kg   REAL NOT NULL,
			reps        INTEGER NOT NULL,
			PRIMARY KEY (workout_id, exercise_id, order_index)
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating catalog schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

// Close closes the catalog database.
func (c *SQLite) Close() error {
	return c.db.Close()
}

// Workout returns one template with its ordered exercises and set plans.
func (c *SQLite) Workout(ctx context.Context, id uuid.UUID) (*Template, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, name FROM workouts WHERE id = ?`, id.String())

	var t Template
	var rawID string
	if err := row.Scan(&rawID, &t.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	t.ID, _ = uuid.Parse(rawID)

	if err := c.loadExercises(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Workouts lists every template, name order.
func (c *SQLite) Workouts(ctx context.Context) ([]*Template, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name FROM workouts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []*Template
	for rows.Next() {
		var t Template
		var rawID string
		if err := rows.Scan(&rawID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		t.ID, _ = uuid.Parse(rawID)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range result {
		if err := c.loadExercises(ctx, t); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *SQLite) loadExercises(ctx context.Context, t *Template) error {
	rows, err := c.db.QueryContext(ctx,
		`SELECT exercise_id, name, notes, rest_seconds, order_index
		 FROM workout_exercises
		 WHERE workout_id = ?
		 ORDER BY order_index`, t.ID.String())
	if err != nil {
		return fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ExercisePlan
		var rawID string
		if err := rows.Scan(&rawID, &p.Name, &p.Notes, &p.RestSeconds, &p.OrderIndex); err != nil {
			return fmt.Errorf("scanning workout exercise: %w", err)
		}
		p.ExerciseID, _ = uuid.Parse(rawID)
		t.Exercises = append(t.Exercises, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range t.Exercises {
		setRows, err := c.db.QueryContext(ctx,
			`SELECT order_index, weight_kg, reps
			 FROM workout_sets
			 WHERE workout_id = ? AND exercise_id = ?
			 ORDER BY order_index`,
			t.ID.String(), t.Exercises[i].ExerciseID.String())
		if err != nil {
			return fmt.Errorf("querying workout sets: %w", err)
		}
		for setRows.Next() {
			var sp SetPlan
			if err := setRows.Scan(&sp.OrderIndex, &sp.WeightKg, &sp.Reps); err != nil {
				setRows.Close()
				return fmt.Errorf("scanning workout set: %w", err)
			}
			t.Exercises[i].Sets = append(t.Exercises[i].Sets, sp)
		}
		err = setRows.Err()
		setRows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Seed inserts a template, replacing any existing rows with the same id.
// Used by dev setups and tests.
func (c *SQLite) Seed(ctx context.Context, t *Template) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO workouts (id, name) VALUES (?, ?)`,
		t.ID.String(), t.Name); err != nil {
		return fmt.Errorf("seeding workout: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM workout_exercises WHERE workout_id = ?`, t.ID.String()); err != nil {
		return fmt.Errorf("clearing workout exercises: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM workout_sets WHERE workout_id = ?`, t.ID.String()); err != nil {
		return fmt.Errorf("clearing workout sets: %w", err)
	}

	for _, p := range t.Exercises {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workout_exercises (workout_id, exercise_id, name, notes, rest_seconds, order_index)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID.String(), p.ExerciseID.String(), p.Name, p.Notes, p.RestSeconds, p.OrderIndex); err != nil {
			return fmt.Errorf("seeding workout exercise: %w", err)
		}
		for _, sp := range p.Sets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_sets (workout_id, exercise_id, order_index, weight_kg, reps)
				 VALUES (?, ?, ?, ?, ?)`,
				t.ID.String(), p.ExerciseID.String(), sp.OrderIndex, sp.WeightKg, sp.Reps); err != nil {
				return fmt.Errorf("seeding workout set: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed tx: %w", err)
	}
	return nil
}
