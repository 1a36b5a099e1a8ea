package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/session"
	"github.com/claude/ironlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type startSessionRequest struct {
	WorkoutID uuid.UUID `json:"workout_id"`
}

type completeSetRequest struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	SetID      uuid.UUID `json:"set_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.WorkoutID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workout_id is required"})
		return
	}

	s.sessions.StartSession(r.Context(), req.WorkoutID)
	if err := s.sessions.Err(); err != nil {
		s.log.Error("start session", "error", err)
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, s.sessions.Current())
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.repo.FetchActive(r.Context())
	if err != nil {
		s.log.Error("fetch active session", "error", err)
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sess, err := s.repo.Fetch(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionsByWorkout(w http.ResponseWriter, r *http.Request) {
	workoutStr := r.URL.Query().Get("workout")
	if workoutStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workout parameter required"})
		return
	}
	workoutID, err := uuid.Parse(workoutStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return
	}

	result, err := s.repo.FetchByWorkout(r.Context(), workoutID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	result, err := s.repo.FetchRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSessionID(w, r); !ok {
		return
	}

	var req completeSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.sessions.CompleteSet(r.Context(), req.ExerciseID, req.SetID)
	if err := s.sessions.Err(); err != nil {
		s.log.Error("complete set", "error", err)
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.sessions.Current())
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSessionID(w, r); !ok {
		return
	}
	s.sessions.PauseSession(r.Context())
	s.respondLifecycle(w)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSessionID(w, r); !ok {
		return
	}
	s.sessions.ResumeSession(r.Context())
	s.respondLifecycle(w)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentSessionID(w, r); !ok {
		return
	}
	s.sessions.EndSession(r.Context())
	s.respondLifecycle(w)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteAll(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	templates, err := s.workouts.Workouts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// currentSessionID checks that the path id addresses the store's current
// session. Lifecycle mutations only go through the store, which owns at
// most one session at a time.
func (s *Server) currentSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return uuid.Nil, false
	}
	current := s.sessions.Current()
	if current == nil || current.ID != id {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "session is not the current session"})
		return uuid.Nil, false
	}
	return id, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) respondLifecycle(w http.ResponseWriter) {
	if err := s.sessions.Err(); err != nil {
		s.log.Error("session lifecycle", "error", err)
		writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if current := s.sessions.Current(); current != nil {
		writeJSON(w, http.StatusOK, current)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorStatus maps the error taxonomy to HTTP statuses: not-found → 404,
// conflict → 409, illegal transition → 422, anything else → 500.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrExerciseNotFound),
		errors.Is(err, session.ErrSetNotFound),
		errors.Is(err, storage.ErrSessionNotFound),
		errors.Is(err, catalog.ErrWorkoutNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrActiveSessionExists),
		errors.Is(err, storage.ErrMultipleActive):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
