package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/domain"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DataSource abstracts the data layer for MCP tools. Local (repository +
// catalog) and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	FetchActive(ctx context.Context) (*domain.Session, error)
	Fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	FetchRecent(ctx context.Context, limit int) ([]*domain.Session, error)
	FetchByWorkout(ctx context.Context, workoutID uuid.UUID) ([]*domain.Session, error)
	Workouts(ctx context.Context) ([]*catalog.Template, error)
}

// Local is the in-process DataSource over the repository and the workout
// catalog.
type Local struct {
	storage.SessionRepository
	Catalog catalog.WorkoutSource
}

var _ DataSource = (*Local)(nil)

func (l *Local) Workouts(ctx context.Context) ([]*catalog.Template, error) {
	return l.Catalog.Workouts(ctx)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("IronLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("IronLog workout session server. Query the active workout session, session history, per-session summaries, and available workout templates."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
		server.ServerTool{Tool: toolGetSessionsForWorkout, Handler: h.getSessionsForWorkout},
		server.ServerTool{Tool: toolGetSessionSummary, Handler: h.getSessionSummary},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"ironlog://active_session",
	"Active Session",
	mcp.WithResourceDescription("The currently active workout session with its exercises and sets, or null if none is active"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"ironlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The ten most recent workout sessions, newest first"),
	mcp.WithMIMEType("application/json"),
)

// --- Resource handlers ---

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sess, err := h.ds.FetchActive(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, sess)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.ds.FetchRecent(ctx, 10)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, sessions)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
