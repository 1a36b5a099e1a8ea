package mcp

import (
	"context"
	"time"

	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Get the currently active workout session with its exercises and sets. Returns null when no session is active."),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one workout session by id, including its exercises and sets sorted by order."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("List recent workout sessions, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 10.")),
)

var toolGetSessionsForWorkout = mcp.NewTool("get_sessions_for_workout",
	mcp.WithDescription("List all sessions performed for one workout template, newest first."),
	mcp.WithString("workout_id", mcp.Required(), mcp.Description("Workout template UUID")),
)

var toolGetSessionSummary = mcp.NewTool("get_session_summary",
	mcp.WithDescription("Summarize one session: state, duration, completed/total sets, progress, and total volume (kg) over completed sets."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List available workout templates with their planned exercises and sets."),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.ds.FetchActive(ctx)
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(sess)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "session_id")
	if res != nil {
		return res, nil
	}

	sess, err := h.ds.Fetch(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultError("session not found"), nil
	}
	return toolJSON(sess)
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	sessions, err := h.ds.FetchRecent(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(sessions)
}

func (h *handlers) getSessionsForWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "workout_id")
	if res != nil {
		return res, nil
	}

	sessions, err := h.ds.FetchByWorkout(ctx, id)
	if err != nil {
		h.log.Error("mcp get_sessions_for_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(sessions)
}

func (h *handlers) getSessionSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := requireUUID(req, "session_id")
	if res != nil {
		return res, nil
	}

	sess, err := h.ds.Fetch(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sess == nil {
		return mcp.NewToolResultError("session not found"), nil
	}
	return toolJSON(summarize(sess, time.Now()))
}

func (h *handlers) listWorkouts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.Workouts(ctx)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return toolJSON(templates)
}

// sessionSummary is the get_session_summary payload.
type sessionSummary struct {
	ID            uuid.UUID           `json:"id"`
	WorkoutID     uuid.UUID           `json:"workout_id"`
	WorkoutName   string              `json:"workout_name,omitempty"`
	State         domain.SessionState `json:"state"`
	DurationSec   int                 `json:"duration_sec"`
	TotalSets     int                 `json:"total_sets"`
	CompletedSets int                 `json:"completed_sets"`
	Progress      float64             `json:"progress"`
	TotalVolumeKg float64             `json:"total_volume_kg"`
}

func summarize(s *domain.Session, now time.Time) sessionSummary {
	return sessionSummary{
		ID:            s.ID,
		WorkoutID:     s.WorkoutID,
		WorkoutName:   s.WorkoutName,
		State:         s.State,
		DurationSec:   int(s.Duration(now).Seconds()),
		TotalSets:     s.TotalSets(),
		CompletedSets: s.CompletedSets(),
		Progress:      s.Progress(),
		TotalVolumeKg: s.TotalVolume(),
	}
}

func requireUUID(req mcp.CallToolRequest, param string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(param)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(param + " parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(param + " is not a valid UUID")
	}
	return id, nil
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
