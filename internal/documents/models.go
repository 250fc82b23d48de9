package documents

import (
	"time"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/internal/workflow"
	"docroute/portal-backend/pkg/workflows"
)

// Panel is the side-panel tab a viewer has open
type Panel string

const (
	PanelNone     Panel = ""
	PanelMessages Panel = "messages"
	PanelActivity Panel = "activity"
)

// ActionRequest is the body of the remote action endpoint
type ActionRequest struct {
	Action         workflow.ActionCode `json:"action"`
	Note           string              `json:"note,omitempty"`
	ReviewOfficeID *offices.OfficeID   `json:"reviewOfficeId,omitempty"`
}

// ActionResponse is returned by the remote action endpoint
type ActionResponse struct {
	Version       workflow.Version `json:"version"`
	ActionMessage string           `json:"actionMessage,omitempty"`
}

// Message is a comment thread entry on a version
type Message struct {
	ID             int64             `json:"id"`
	VersionID      int64             `json:"versionId"`
	Body           string            `json:"body"`
	SenderOfficeID *offices.OfficeID `json:"senderOfficeId,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// ActivityLog is one audit entry on a version
type ActivityLog struct {
	ID        int64             `json:"id"`
	VersionID int64             `json:"versionId"`
	Action    string            `json:"action"`
	Note      string            `json:"note,omitempty"`
	OfficeID  *offices.OfficeID `json:"officeId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ViewRequest identifies whose view of which version to load
type ViewRequest struct {
	SessionID      string
	VersionID      int64
	ActingOfficeID *offices.OfficeID
}

// Snapshot is a loaded view together with the inputs it was built from
type Snapshot struct {
	Input workflow.ViewInput
	View  workflow.View
}

// TransitionCommand is one request to execute an offered action
type TransitionCommand struct {
	ToStatus       string
	Kind           workflows.TransitionKind
	Note           string
	ReviewOfficeID *offices.OfficeID
	VisiblePanel   Panel
}

// TransitionResult is what a successful transition produced
type TransitionResult struct {
	ActionCode    workflow.ActionCode `json:"actionCode"`
	ActionMessage string              `json:"actionMessage,omitempty"`
	Version       workflow.Version    `json:"version"`
	Tasks         []workflow.Task     `json:"tasks"`
	Messages      []Message           `json:"messages,omitempty"`
	Activity      []ActivityLog       `json:"activity,omitempty"`
	RefreshErrors []string            `json:"refreshErrors,omitempty"`
}

// TransitionOutcome is a transition result plus the view recomputed from it
type TransitionOutcome struct {
	Result TransitionResult `json:"result"`
	View   workflow.View    `json:"view"`
}

// TransitionRequest is the HTTP body of an action request
type TransitionRequest struct {
	ToStatus       string                   `json:"toStatus" binding:"required"`
	Kind           workflows.TransitionKind `json:"kind" binding:"omitempty,oneof=forward return"`
	Note           string                   `json:"note"`
	ReviewOfficeID *offices.OfficeID        `json:"reviewOfficeId"`
	Confirmed      bool                     `json:"confirmed"`
	VisiblePanel   Panel                    `json:"visiblePanel" binding:"omitempty,oneof=messages activity"`
}
