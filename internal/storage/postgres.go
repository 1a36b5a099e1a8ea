package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the durable SessionRepository backed by pgx.
type Postgres struct {
	Pool *pgxpool.Pool
}

var _ SessionRepository = (*Postgres)(nil)

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{Pool: pool}
}

// Save inserts a brand-new session with all its exercises and sets.
func (p *Postgres) Save(ctx context.Context, s *domain.Session) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning save tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO workout_sessions (id, workout_id, workout_name, start_date, end_date, state)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.WorkoutID, s.WorkoutName, s.StartDate, s.EndDate, string(s.State))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, e := range s.Exercises {
		if err := insertExercise(ctx, tx, s.ID, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save tx: %w", err)
	}
	return nil
}

// Update replaces the session's scalar fields and merges the nested
// exercise/set rows in place. Children are matched by id: existing rows are
// updated field-by-field, rows absent from the domain value are deleted, and
// new ids are inserted. This keeps surviving child rows (and their ids)
// untouched across updates.
func (p *Postgres) Update(ctx context.Context, s *domain.Session) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE workout_sessions
		 SET workout_id = $2, workout_name = $3, start_date = $4, end_date = $5, state = $6
		 WHERE id = $1`,
		s.ID, s.WorkoutID, s.WorkoutName, s.StartDate, s.EndDate, string(s.State))
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	existing, err := existingIDs(ctx, tx,
		`SELECT id FROM session_exercises WHERE session_id = $1`, s.ID)
	if err != nil {
		return fmt.Errorf("listing session exercises: %w", err)
	}

	keep := make(map[uuid.UUID]bool, len(s.Exercises))
	for _, e := range s.Exercises {
		keep[e.ID] = true
		if existing[e.ID] {
			if err := mergeExercise(ctx, tx, e); err != nil {
				return err
			}
		} else if err := insertExercise(ctx, tx, s.ID, e); err != nil {
			return err
		}
	}

	for id := range existing {
		if !keep[id] {
			// Cascade removes the exercise's sets.
			if _, err := tx.Exec(ctx,
				`DELETE FROM session_exercises WHERE id = $1`, id); err != nil {
				return fmt.Errorf("deleting removed exercise: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing update tx: %w", err)
	}
	return nil
}

func mergeExercise(ctx context.Context, tx pgx.Tx, e domain.Exercise) error {
	_, err := tx.Exec(ctx,
		`UPDATE session_exercises
		 SET exercise_id = $2, notes = $3, rest_seconds = $4, order_index = $5
		 WHERE id = $1`,
		e.ID, e.ExerciseID, e.Notes, e.RestSeconds, e.OrderIndex)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}

	existing, err := existingIDs(ctx, tx,
		`SELECT id FROM session_sets WHERE exercise_id = $1`, e.ID)
	if err != nil {
		return fmt.Errorf("listing exercise sets: %w", err)
	}

	keep := make(map[uuid.UUID]bool, len(e.Sets))
	for _, set := range e.Sets {
		keep[set.ID] = true
		if existing[set.ID] {
			_, err = tx.Exec(ctx,
				`UPDATE session_sets
				 SET weight_kg = $2, reps = $3, completed = $4, completed_at = $5, order_index = $6
				 WHERE id = $1`,
				set.ID, set.WeightKg, set.Reps, set.Completed, set.CompletedAt, set.OrderIndex)
			if err != nil {
				return fmt.Errorf("updating set: %w", err)
			}
		} else {
			_, err = tx.Exec(ctx,
				`INSERT INTO session_sets (id, exercise_id, weight_kg, reps, completed, completed_at, order_index)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				set.ID, e.ID, set.WeightKg, set.Reps, set.Completed, set.CompletedAt, set.OrderIndex)
			if err != nil {
				return fmt.Errorf("inserting set: %w", err)
			}
		}
	}

	for id := range existing {
		if !keep[id] {
			if _, err := tx.Exec(ctx,
				`DELETE FROM session_sets WHERE id = $1`, id); err != nil {
				return fmt.Errorf("deleting removed set: %w", err)
			}
		}
	}
	return nil
}

func insertExercise(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, e domain.Exercise) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO session_exercises (id, session_id, exercise_id, notes, rest_seconds, order_index)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, sessionID, e.ExerciseID, e.Notes, e.RestSeconds, e.OrderIndex)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	if len(e.Sets) == 0 {
		return nil
	}

	query := `INSERT INTO session_sets (id, exercise_id, weight_kg, reps, completed, completed_at, order_index) VALUES `
	args := make([]any, 0, len(e.Sets)*7)
	valueStrings := make([]string, 0, len(e.Sets))

	for i, set := range e.Sets {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, set.ID, e.ID, set.WeightKg, set.Reps, set.Completed, set.CompletedAt, set.OrderIndex)
	}

	query += strings.Join(valueStrings, ",")
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting sets: %w", err)
	}
	return nil
}

func existingIDs(ctx context.Context, tx pgx.Tx, query string, arg any) (map[uuid.UUID]bool, error) {
	rows, err := tx.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Fetch returns the session with its children, or (nil, nil) when absent.
func (p *Postgres) Fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := p.Pool.QueryRow(ctx,
		`SELECT id, workout_id, workout_name, start_date, end_date, state
		 FROM workout_sessions WHERE id = $1`, id)

	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := p.loadChildren(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// FetchActive returns the single active session, or (nil, nil) when none.
// More than one active row is an integrity violation and fails fast.
func (p *Postgres) FetchActive(ctx context.Context) (*domain.Session, error) {
	rows, err := p.Pool.Query(ctx,
		`SELECT id FROM workout_sessions WHERE state = $1`, string(domain.StateActive))
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning active session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return p.Fetch(ctx, ids[0])
	default:
		return nil, ErrMultipleActive
	}
}

// FetchByWorkout returns sessions for a workout template, newest first.
func (p *Postgres) FetchByWorkout(ctx context.Context, workoutID uuid.UUID) ([]*domain.Session, error) {
	return p.querySessions(ctx,
		`SELECT id, workout_id, workout_name, start_date, end_date, state
		 FROM workout_sessions
		 WHERE workout_id = $1
		 ORDER BY start_date DESC`, workoutID)
}

// FetchRecent returns up to limit sessions, newest first.
func (p *Postgres) FetchRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	return p.querySessions(ctx,
		`SELECT id, workout_id, workout_name, start_date, end_date, state
		 FROM workout_sessions
		 ORDER BY start_date DESC
		 LIMIT $1`, limit)
}

// Delete removes one session; exercises and sets go with it by cascade.
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := p.Pool.Exec(ctx, `DELETE FROM workout_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteAll removes every session record.
func (p *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, `DELETE FROM workout_sessions`); err != nil {
		return fmt.Errorf("deleting all sessions: %w", err)
	}
	return nil
}

func (p *Postgres) querySessions(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range result {
		if err := p.loadChildren(ctx, s); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var state string
	if err := row.Scan(&s.ID, &s.WorkoutID, &s.WorkoutName, &s.StartDate, &s.EndDate, &state); err != nil {
		return nil, err
	}
	s.State = domain.SessionState(state)
	return &s, nil
}

func (p *Postgres) loadChildren(ctx context.Context, s *domain.Session) error {
	exRows, err := p.Pool.Query(ctx,
		`SELECT id, exercise_id, notes, rest_seconds, order_index
		 FROM session_exercises
		 WHERE session_id = $1`, s.ID)
	if err != nil {
		return fmt.Errorf("querying session exercises: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var e domain.Exercise
		if err := exRows.Scan(&e.ID, &e.ExerciseID, &e.Notes, &e.RestSeconds, &e.OrderIndex); err != nil {
			return fmt.Errorf("scanning session exercise: %w", err)
		}
		s.Exercises = append(s.Exercises, e)
	}
	if err := exRows.Err(); err != nil {
		return err
	}

	for i := range s.Exercises {
		setRows, err := p.Pool.Query(ctx,
			`SELECT id, weight_kg, reps, completed, completed_at, order_index
			 FROM session_sets
			 WHERE exercise_id = $1`, s.Exercises[i].ID)
		if err != nil {
			return fmt.Errorf("querying session sets: %w", err)
		}
		for setRows.Next() {
			var set domain.Set
			if err := setRows.Scan(&set.ID, &set.WeightKg, &set.Reps, &set.Completed, &set.CompletedAt, &set.OrderIndex); err != nil {
				setRows.Close()
				return fmt.Errorf("scanning session set: %w", err)
			}
			s.Exercises[i].Sets = append(s.Exercises[i].Sets, set)
		}
		err = setRows.Err()
		setRows.Close()
		if err != nil {
			return err
		}
	}

	// Storage returns child rows unordered; order index is the sort key.
	s.SortChildren()
	return nil
}
