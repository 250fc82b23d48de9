package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/internal/workflow"
)

// RemoteClient reads records from and submits actions to the remote document system
type RemoteClient interface {
	GetDocument(ctx context.Context, id int64) (*workflow.Document, error)
	GetVersion(ctx context.Context, id int64) (*workflow.Version, error)
	ListTasks(ctx context.Context, versionID int64) ([]workflow.Task, error)
	ListRouteSteps(ctx context.Context, versionID int64) ([]workflow.RouteStepConfig, error)
	ListOffices(ctx context.Context) ([]offices.Office, error)
	SubmitAction(ctx context.Context, versionID int64, req ActionRequest) (*ActionResponse, error)
	ListMessages(ctx context.Context, versionID int64) ([]Message, error)
	ListActivity(ctx context.Context, versionID int64) ([]ActivityLog, error)
	UnreadCount(ctx context.Context, officeID int64) (int, error)
}

// RemoteError is a non-2xx answer from the remote system.
// Message is the server's human-readable text, unchanged.
type RemoteError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *RemoteError) Error() string {
	return e.Message
}

// HTTPClient is the JSON-over-HTTP RemoteClient
type HTTPClient struct {
	baseURL         *url.URL
	authorization   string
	requestIDHeader string
	httpClient      *http.Client
}

// NewHTTPClient creates a client for the remote API at baseURL
func NewHTTPClient(baseURL, authorization, requestIDHeader string, timeout time.Duration) (*HTTPClient, error) {
	baseURL = strings.TrimSpace(baseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote API base URL: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:         u,
		authorization:   strings.TrimSpace(authorization),
		requestIDHeader: requestIDHeader,
		httpClient:      &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("json marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("http read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := &RemoteError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, remote); err != nil || strings.TrimSpace(remote.Message) == "" {
			remote.Message = fmt.Sprintf("remote request failed with status %d", resp.StatusCode)
		}
		return remote
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("json unmarshal response: %w", err)
	}
	return nil
}

func versionPath(versionID int64, suffix string) string {
	return "/api/versions/" + strconv.FormatInt(versionID, 10) + suffix
}

func (c *HTTPClient) GetDocument(ctx context.Context, id int64) (*workflow.Document, error) {
	var doc workflow.Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents/"+strconv.FormatInt(id, 10), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) GetVersion(ctx context.Context, id int64) (*workflow.Version, error) {
	var version workflow.Version
	if err := c.doJSON(ctx, http.MethodGet, versionPath(id, ""), nil, nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, versionID int64) ([]workflow.Task, error) {
	tasks := []workflow.Task{}
	if err := c.doJSON(ctx, http.MethodGet, versionPath(versionID, "/tasks"), nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) ListRouteSteps(ctx context.Context, versionID int64) ([]workflow.RouteStepConfig, error) {
	steps := []workflow.RouteStepConfig{}
	if err := c.doJSON(ctx, http.MethodGet, versionPath(versionID, "/route-steps"), nil, nil, &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (c *HTTPClient) ListOffices(ctx context.Context) ([]offices.Office, error) {
	list := []offices.Office{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/offices", nil, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) SubmitAction(ctx context.Context, versionID int64, req ActionRequest) (*ActionResponse, error) {
	var out ActionResponse
	if err := c.doJSON(ctx, http.MethodPost, versionPath(versionID, "/actions"), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, versionID int64) ([]Message, error) {
	messages := []Message{}
	if err := c.doJSON(ctx, http.MethodGet, versionPath(versionID, "/messages"), nil, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *HTTPClient) ListActivity(ctx context.Context, versionID int64) ([]ActivityLog, error) {
	logs := []ActivityLog{}
	if err := c.doJSON(ctx, http.MethodGet, versionPath(versionID, "/activity-logs"), nil, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) UnreadCount(ctx context.Context, officeID int64) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	q := url.Values{}
	q.Set("office_id", strconv.FormatInt(officeID, 10))
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications/unread-count", q, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
