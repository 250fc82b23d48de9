package notifications

import (
	"time"
)

// WebSocketMessage represents WebSocket message format
type WebSocketMessage struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Channel   string                 `json:"channel"`
	Target    string                 `json:"target"` // office id or "all"
	Source    string                 `json:"source"` // portal instance id
}

// RefreshEvent asks open views to refresh after a transition
type RefreshEvent struct {
	ID         string    `json:"id"`
	VersionID  int64     `json:"version_id"`
	ActionCode string    `json:"action_code"`
	OfficeID   *int64    `json:"office_id,omitempty"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// UnreadCount is the notification badge value of one office
type UnreadCount struct {
	OfficeID int64 `json:"office_id"`
	Count    int   `json:"count"`
}

const (
	// WebSocket message types
	WSMessageTypeRefresh     = "notifications_refresh"
	WSMessageTypeUnreadCount = "unread_count"
	WSMessageTypeStatus      = "status"
	WSMessageTypePresence    = "presence"

	// WebSocket channels
	ChannelBroadcast = "broadcast"
	ChannelOffice    = "office"
	ChannelPrivate   = "private"
)

// Message converts the event into its websocket form
func (e RefreshEvent) Message() WebSocketMessage {
	data := map[string]interface{}{
		"event_id":    e.ID,
		"version_id":  e.VersionID,
		"action_code": e.ActionCode,
	}
	if e.OfficeID != nil {
		data["office_id"] = *e.OfficeID
	}
	return WebSocketMessage{
		Type:      WSMessageTypeRefresh,
		Data:      data,
		Timestamp: e.OccurredAt,
		Channel:   ChannelBroadcast,
		Target:    "all",
		Source:    e.Source,
	}
}
