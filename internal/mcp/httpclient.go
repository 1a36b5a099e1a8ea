package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/ironlog/internal/catalog"
	"github.com/claude/ironlog/internal/domain"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the IronLog REST API. Used
// for remote MCP mode where the binary runs locally (stdio) but data lives
// on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) FetchActive(ctx context.Context) (*domain.Session, error) {
	var sess domain.Session
	err := c.getJSON(ctx, "/api/v1/sessions/active", nil, &sess)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) Fetch(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var sess domain.Session
	err := c.getJSON(ctx, "/api/v1/sessions/"+id.String(), nil, &sess)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) FetchRecent(ctx context.Context, limit int) ([]*domain.Session, error) {
	var sessions []*domain.Session
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/v1/sessions/recent", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) FetchByWorkout(ctx context.Context, workoutID uuid.UUID) ([]*domain.Session, error) {
	var sessions []*domain.Session
	params := url.Values{"workout": {workoutID.String()}}
	if err := c.getJSON(ctx, "/api/v1/sessions", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) Workouts(ctx context.Context) ([]*catalog.Template, error) {
	var templates []*catalog.Template
	if err := c.getJSON(ctx, "/api/v1/workouts", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// statusError carries the HTTP status of a failed API call.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
