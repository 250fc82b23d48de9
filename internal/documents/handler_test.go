package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docroute/portal-backend/internal/workflow"
	"docroute/portal-backend/pkg/supersede"
)

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) GetWorkflowView(ctx context.Context, req ViewRequest) (*Snapshot, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Snapshot), args.Error(1)
}

func (m *MockService) ExecuteTransition(ctx context.Context, req ViewRequest, cmd TransitionCommand, confirmer Confirmer) (*TransitionOutcome, error) {
	args := m.Called(ctx, req, cmd, confirmer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TransitionOutcome), args.Error(1)
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHandler_GetWorkflow(t *testing.T) {
	svc := new(MockService)
	view := workflow.BuildView(vpReviewInput())
	svc.On("GetWorkflowView", mock.Anything, ViewRequest{
		SessionID:      "tab-1",
		VersionID:      10,
		ActingOfficeID: officeID(4),
	}).Return(&Snapshot{Input: vpReviewInput(), View: view}, nil)

	w := doRequest(setupRouter(svc), http.MethodGet, "/api/v1/versions/10/workflow", nil, map[string]string{
		HeaderOfficeID:  "4",
		HeaderSessionID: "tab-1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "originator-led", body["shape"])
	svc.AssertExpectations(t)
}

func TestHandler_BadInput(t *testing.T) {
	svc := new(MockService)
	r := setupRouter(svc)

	w := doRequest(r, http.MethodGet, "/api/v1/versions/abc/workflow", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/versions/10/workflow", nil, map[string]string{HeaderOfficeID: "finance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/versions/10/actions", map[string]any{"kind": "forward"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/api/v1/versions/10/actions", map[string]any{"toStatus": "Draft", "kind": "sideways"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertNotCalled(t, "GetWorkflowView", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "ExecuteTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_TransitionPassesConfirmation(t *testing.T) {
	svc := new(MockService)
	outcome := &TransitionOutcome{Result: TransitionResult{ActionCode: workflow.CodeReturnToDraft}}
	svc.On("ExecuteTransition", mock.Anything, mock.Anything, TransitionCommand{
		ToStatus: workflow.StatusDraft,
		Kind:     "return",
		Note:     "Missing annex",
	}, mock.MatchedBy(func(c Confirmer) bool {
		return c.Confirm(context.Background(), "prompt")
	})).Return(outcome, nil)

	w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/versions/10/actions", map[string]any{
		"toStatus":  workflow.StatusDraft,
		"kind":      "return",
		"note":      "Missing annex",
		"confirmed": true,
	}, map[string]string{HeaderOfficeID: "4"})

	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody(t, w)["result"].(map[string]any)
	assert.Equal(t, "RETURN_TO_DRAFT", result["actionCode"])
}

func TestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"note required", NewNoteRequiredError("Return to edit"), http.StatusUnprocessableEntity, "note_required", ""},
		{"not authorized", NewNotAuthorizedError("Register document"), http.StatusForbidden, "not_authorized", ""},
		{"not confirmed", NewNotConfirmedError("Register document", ConfirmPrompt("Register document")), http.StatusConflict, "not_confirmed", ""},
		{
			"remote rejection keeps status and message",
			NewRemoteRejectedError("Register document", &RemoteError{StatusCode: 422, Message: "Not allowed"}),
			http.StatusUnprocessableEntity, "remote_rejected", "Not allowed",
		},
		{
			"remote transport failure",
			NewRemoteRejectedError("Register document", errors.New("connection refused")),
			http.StatusBadGateway, "remote_rejected", "connection refused",
		},
		{"superseded", supersede.ErrSuperseded, http.StatusConflict, "superseded", ""},
		{
			"superseded route fetch",
			fmt.Errorf("failed to load route steps of version 10: %w", supersede.ErrSuperseded),
			http.StatusConflict, "superseded", "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("ExecuteTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

			w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/versions/10/actions",
				map[string]any{"toStatus": workflow.StatusDistribution}, map[string]string{HeaderOfficeID: "1"})

			assert.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, tc.code, body["code"])
			if tc.msg != "" {
				assert.Equal(t, tc.msg, body["error"])
			}
		})
	}
}

func TestHandler_NotConfirmedCarriesPrompt(t *testing.T) {
	svc := new(MockService)
	prompt := ConfirmPrompt("Register document")
	svc.On("ExecuteTransition", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, NewNotConfirmedError("Register document", prompt))

	w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/versions/10/actions",
		map[string]any{"toStatus": workflow.StatusDistribution}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, `Are you sure you want to "Register document"?`, decodeBody(t, w)["prompt"])
}

func TestHandler_ViewErrors(t *testing.T) {
	svc := new(MockService)
	svc.On("GetWorkflowView", mock.Anything, mock.Anything).
		Return(nil, &RemoteError{StatusCode: http.StatusNotFound, Message: "Version not found"}).Once()
	svc.On("GetWorkflowView", mock.Anything, mock.Anything).
		Return(nil, errors.New("boom")).Once()
	r := setupRouter(svc)

	w := doRequest(r, http.MethodGet, "/api/v1/versions/10/workflow", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Version not found", decodeBody(t, w)["error"])

	w = doRequest(r, http.MethodGet, "/api/v1/versions/10/workflow", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
