package documents

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/pkg/supersede"
)

// Request headers identifying the viewer
const (
	HeaderOfficeID  = "X-Office-ID"
	HeaderSessionID = "X-Session-ID"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	versions := rg.Group("/versions")
	{
		versions.GET("/:versionId/workflow", h.GetWorkflow)
		versions.POST("/:versionId/actions", h.Transition)
	}
}

func (h *Handler) GetWorkflow(c *gin.Context) {
	req, ok := h.viewRequest(c)
	if !ok {
		return
	}

	snap, err := h.service.GetWorkflowView(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap.View)
}

func (h *Handler) Transition(c *gin.Context) {
	req, ok := h.viewRequest(c)
	if !ok {
		return
	}

	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := TransitionCommand{
		ToStatus:       body.ToStatus,
		Kind:           body.Kind,
		Note:           body.Note,
		ReviewOfficeID: body.ReviewOfficeID,
		VisiblePanel:   body.VisiblePanel,
	}
	// the browser asked the user before sending confirmed=true
	confirmer := ConfirmFunc(func(ctx context.Context, prompt string) bool {
		return body.Confirmed
	})

	outcome, err := h.service.ExecuteTransition(c.Request.Context(), req, cmd, confirmer)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) viewRequest(c *gin.Context) (ViewRequest, bool) {
	versionID, err := strconv.ParseInt(c.Param("versionId"), 10, 64)
	if err != nil || versionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version id"})
		return ViewRequest{}, false
	}

	req := ViewRequest{
		SessionID: strings.TrimSpace(c.GetHeader(HeaderSessionID)),
		VersionID: versionID,
	}

	if raw := strings.TrimSpace(c.GetHeader(HeaderOfficeID)); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid office id"})
			return ViewRequest{}, false
		}
		officeID := offices.OfficeID(id)
		req.ActingOfficeID = &officeID
	}

	return req, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		body := gin.H{"error": execErr.Message, "code": execErr.Code.String()}
		if execErr.Prompt != "" {
			body["prompt"] = execErr.Prompt
		}
		c.JSON(statusForExecution(execErr), body)
		return
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		c.JSON(remoteStatus(remoteErr.StatusCode), gin.H{"error": remoteErr.Message})
		return
	}

	if errors.Is(err, supersede.ErrSuperseded) {
		c.JSON(http.StatusConflict, gin.H{"error": "request superseded by a newer one", "code": "superseded"})
		return
	}

	h.logger.Error("workflow request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func statusForExecution(err *ExecutionError) int {
	switch err.Code {
	case ErrCodeNotAuthorized:
		return http.StatusForbidden
	case ErrCodeNotConfirmed:
		return http.StatusConflict
	case ErrCodeRemoteRejected:
		var remoteErr *RemoteError
		if errors.As(err.Err, &remoteErr) {
			return remoteStatus(remoteErr.StatusCode)
		}
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func remoteStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusBadGateway
}
