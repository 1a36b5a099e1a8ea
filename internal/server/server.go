package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/storage"
	"github.com/claude/ironlog/internal/store"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers. Lifecycle operations go
// through the session store; history queries and maintenance hit the
// repository directly.
type Server struct {
	sessions *store.Store
	repo     storage.SessionRepository
	workouts catalog.WorkoutSource
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(sessions *store.Store, repo storage.SessionRepository, workouts catalog.WorkoutSource, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		sessions: sessions,
		repo:     repo,
		workouts: workouts,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/sessions/active", s.handleActiveSession)
	s.router.Get("/api/v1/sessions/recent", s.handleRecentSessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Get("/api/v1/sessions", s.handleSessionsByWorkout)
	s.router.Get("/api/v1/workouts", s.handleListWorkouts)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions", s.handleStartSession)
		r.Post("/api/v1/sessions/{id}/sets/complete", s.handleCompleteSet)
		r.Post("/api/v1/sessions/{id}/pause", s.handlePauseSession)
		r.Post("/api/v1/sessions/{id}/resume", s.handleResumeSession)
		r.Post("/api/v1/sessions/{id}/end", s.handleEndSession)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
		r.Delete("/api/v1/sessions", s.handleDeleteAllSessions)
	})
}
