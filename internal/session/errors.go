package session

import "errors"

var (
	// ErrActiveSessionExists rejects a start while another session is
	// active. This is the sole admission-control gate: paused sessions do
	// not block new starts.
	ErrActiveSessionExists = errors.New("an active session already exists")

	// ErrSessionNotFound is returned when a use case is given an id with no
	// stored session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrExerciseNotFound is returned when the exercise id misses within
	// the fetched session.
	ErrExerciseNotFound = errors.New("exercise not found in session")

	// ErrSetNotFound is returned when the set id misses within the exercise.
	ErrSetNotFound = errors.New("set not found in exercise")

	// ErrInvalidState rejects a lifecycle transition that is not legal from
	// the session's current state.
	ErrInvalidState = errors.New("operation not allowed in current session state")
)
