package documents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docroute/portal-backend/internal/workflow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL, "Bearer token", "X-Request-ID", 5*time.Second)
	require.NoError(t, err)
	return client
}

func TestNewHTTPClient_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/path"} {
		_, err := NewHTTPClient(raw, "", "", 0)
		assert.Error(t, err, raw)
	}
}

func TestHTTPClient_GetVersion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/versions/10", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":10,"documentId":1,"status":"For VP Review","versionNumber":2,"ownerOfficeId":3}`))
	})

	version, err := client.GetVersion(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, int64(10), version.ID)
	assert.Equal(t, workflow.StatusVPReview, version.Status)
	require.NotNil(t, version.OwnerOfficeID)
	assert.Equal(t, int64(3), int64(*version.OwnerOfficeID))
}

func TestHTTPClient_SubmitAction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/versions/10/actions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body ActionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, workflow.CodeReturnToDraft, body.Action)
		assert.Equal(t, "Fix page 2", body.Note)

		_, _ = w.Write([]byte(`{"version":{"id":10,"status":"Draft"},"actionMessage":"Returned"}`))
	})

	resp, err := client.SubmitAction(context.Background(), 10, ActionRequest{Action: workflow.CodeReturnToDraft, Note: "Fix page 2"})

	require.NoError(t, err)
	assert.Equal(t, workflow.StatusDraft, resp.Version.Status)
	assert.Equal(t, "Returned", resp.ActionMessage)
}

func TestHTTPClient_RemoteErrorKeepsServerMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"Not allowed"}`))
	})

	_, err := client.SubmitAction(context.Background(), 10, ActionRequest{Action: workflow.CodeRegister})

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnprocessableEntity, remoteErr.StatusCode)
	assert.Equal(t, "Not allowed", remoteErr.Message)
	assert.Equal(t, "Not allowed", err.Error())
}

func TestHTTPClient_RemoteErrorWithoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.ListTasks(context.Background(), 10)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, "remote request failed with status 502", remoteErr.Message)
}

func TestHTTPClient_ListPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	})
	ctx := context.Background()

	tasks, err := client.ListTasks(ctx, 7)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	_, err = client.ListRouteSteps(ctx, 7)
	require.NoError(t, err)
	_, err = client.ListMessages(ctx, 7)
	require.NoError(t, err)
	_, err = client.ListActivity(ctx, 7)
	require.NoError(t, err)
	_, err = client.ListOffices(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/versions/7/tasks",
		"/api/versions/7/route-steps",
		"/api/versions/7/messages",
		"/api/versions/7/activity-logs",
		"/api/offices",
	}, paths)
}

func TestHTTPClient_UnreadCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications/unread-count", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("office_id"))
		_, _ = w.Write([]byte(`{"count":3}`))
	})

	count, err := client.UnreadCount(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
