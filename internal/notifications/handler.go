package notifications

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConnectionServer upgrades viewer connections
type ConnectionServer interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	service *Service
	server  ConnectionServer
	logger  *zap.Logger
}

func NewHandler(service *Service, server ConnectionServer, logger *zap.Logger) *Handler {
	return &Handler{service: service, server: server, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
	rg.POST("/signals", h.ReceiveSignal)
}

// Connect upgrades to a websocket. The upgrader writes its own error response.
func (h *Handler) Connect(c *gin.Context) {
	if err := h.server.Serve(c.Writer, c.Request); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

// ReceiveSignal accepts refresh events relayed through an SNS HTTP subscription
func (h *Handler) ReceiveSignal(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	var env SNSEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid envelope"})
		return
	}

	switch env.Type {
	case SNSTypeSubscriptionConfirm, SNSTypeUnsubscribeConfirm:
		// confirmation is an operator decision, so the URL is only logged
		h.logger.Info("SNS subscription message received",
			zap.String("type", env.Type),
			zap.String("topic_arn", env.TopicArn),
			zap.String("subscribe_url", env.SubscribeURL))
		c.Status(http.StatusOK)
		return
	}

	event, err := DecodeRefreshEvent(env)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Relay(c.Request.Context(), event); err != nil {
		h.logger.Warn("refresh relay incomplete", zap.String("event_id", event.ID), zap.Error(err))
	}
	c.Status(http.StatusAccepted)
}
