package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/domain"
	"github.com/claude/ironlog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestHandlers(t *testing.T) (*handlers, *storage.Memory, *catalog.Template) {
	t.Helper()
	repo := storage.NewMemory()
	tpl := catalog.DefaultTemplate()
	h := &handlers{
		ds:  &Local{SessionRepository: repo, Catalog: catalog.NewMemory(tpl)},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h, repo, tpl
}

func seedSession(t *testing.T, repo *storage.Memory, state domain.SessionState) *domain.Session {
	t.Helper()
	completedAt := time.Date(2026, 3, 1, 10, 20, 0, 0, time.UTC)
	s := &domain.Session{
		ID:          uuid.New(),
		WorkoutID:   uuid.New(),
		WorkoutName: "Push Day",
		StartDate:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		State:       state,
		Exercises: []domain.Exercise{
			{
				ID:         uuid.New(),
				ExerciseID: uuid.New(),
				OrderIndex: 0,
				Sets: []domain.Set{
					{ID: uuid.New(), WeightKg: 100, Reps: 8, Completed: true, CompletedAt: &completedAt, OrderIndex: 0},
					{ID: uuid.New(), WeightKg: 100, Reps: 8, OrderIndex: 1},
				},
			},
		},
	}
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestSummarize verifies the derived numbers in the summary payload.
func TestSummarize(t *testing.T) {
	_, repo, _ := newTestHandlers(t)
	s := seedSession(t, repo, domain.StateActive)

	now := s.StartDate.Add(30 * time.Minute)
	sum := summarize(s, now)

	if sum.ID != s.ID || sum.WorkoutName != "Push Day" {
		t.Errorf("identity fields wrong: %+v", sum)
	}
	if sum.DurationSec != 1800 {
		t.Errorf("duration = %d, want 1800", sum.DurationSec)
	}
	if sum.TotalSets != 2 || sum.CompletedSets != 1 {
		t.Errorf("sets = %d/%d, want 1/2", sum.CompletedSets, sum.TotalSets)
	}
	if sum.Progress != 0.5 {
		t.Errorf("progress = %v, want 0.5", sum.Progress)
	}
	if sum.TotalVolumeKg != 800 {
		t.Errorf("volume = %v, want 800", sum.TotalVolumeKg)
	}
}

// TestGetSessionTool verifies the fetch-by-id tool round trip and its error
// results.
func TestGetSessionTool(t *testing.T) {
	ctx := context.Background()
	h, repo, _ := newTestHandlers(t)
	s := seedSession(t, repo, domain.StateCompleted)

	res, err := h.getSession(ctx, toolRequest(map[string]any{"session_id": s.ID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var got domain.Session
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID {
		t.Errorf("session id = %s, want %s", got.ID, s.ID)
	}

	res, _ = h.getSession(ctx, toolRequest(map[string]any{"session_id": uuid.NewString()}))
	if !res.IsError {
		t.Error("unknown id should be a tool error")
	}

	res, _ = h.getSession(ctx, toolRequest(map[string]any{"session_id": "not-a-uuid"}))
	if !res.IsError {
		t.Error("malformed id should be a tool error")
	}

	res, _ = h.getSession(ctx, toolRequest(nil))
	if !res.IsError {
		t.Error("missing id should be a tool error")
	}
}

// TestGetActiveSessionTool verifies the null result with no active session.
func TestGetActiveSessionTool(t *testing.T) {
	ctx := context.Background()
	h, repo, _ := newTestHandlers(t)

	res, err := h.getActiveSession(ctx, toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); got != "null" {
		t.Errorf("no-active result = %q, want null", got)
	}

	s := seedSession(t, repo, domain.StateActive)
	res, _ = h.getActiveSession(ctx, toolRequest(nil))
	var got domain.Session
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID {
		t.Errorf("active session = %s, want %s", got.ID, s.ID)
	}
}

// TestGetRecentSessionsTool verifies the limit argument handling.
func TestGetRecentSessionsTool(t *testing.T) {
	ctx := context.Background()
	h, repo, _ := newTestHandlers(t)
	seedSession(t, repo, domain.StateCompleted)

	res, err := h.getRecentSessions(ctx, toolRequest(map[string]any{"limit": 5}))
	if err != nil {
		t.Fatal(err)
	}
	var sessions []domain.Session
	if err := json.Unmarshal([]byte(resultText(t, res)), &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("got %d sessions, want 1", len(sessions))
	}

	res, _ = h.getRecentSessions(ctx, toolRequest(map[string]any{"limit": 0}))
	if !res.IsError {
		t.Error("non-positive limit should be a tool error")
	}
}

// TestGetSessionSummaryTool verifies the summary tool output shape.
func TestGetSessionSummaryTool(t *testing.T) {
	ctx := context.Background()
	h, repo, _ := newTestHandlers(t)
	s := seedSession(t, repo, domain.StateCompleted)

	res, err := h.getSessionSummary(ctx, toolRequest(map[string]any{"session_id": s.ID.String()}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var sum sessionSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.ID != s.ID || sum.TotalSets != 2 || sum.CompletedSets != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

// TestListWorkoutsTool verifies the catalog listing over the tool surface.
func TestListWorkoutsTool(t *testing.T) {
	h, _, tpl := newTestHandlers(t)

	res, err := h.listWorkouts(context.Background(), toolRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var templates []catalog.Template
	if err := json.Unmarshal([]byte(resultText(t, res)), &templates); err != nil {
		t.Fatal(err)
	}
	if len(templates) != 1 || templates[0].ID != tpl.ID {
		t.Errorf("templates = %+v", templates)
	}
}

// TestResources verifies the two read-only resources serve JSON.
func TestResources(t *testing.T) {
	ctx := context.Background()
	h, repo, _ := newTestHandlers(t)
	s := seedSession(t, repo, domain.StateActive)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "ironlog://active_session"
	contents, err := h.activeSession(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	if tc.URI != "ironlog://active_session" || tc.MIMEType != "application/json" {
		t.Errorf("resource metadata = %+v", tc)
	}
	var got domain.Session
	if err := json.Unmarshal([]byte(tc.Text), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != s.ID {
		t.Errorf("resource session = %s, want %s", got.ID, s.ID)
	}

	req.Params.URI = "ironlog://recent_sessions"
	contents, err = h.recentSessions(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var sessions []domain.Session
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &sessions); err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Errorf("recent resource = %d sessions, want 1", len(sessions))
	}
}
