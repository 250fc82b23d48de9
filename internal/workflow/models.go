package workflow

import (
	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/pkg/workflows"
)

// Phase is a coarse-grained stage of the document lifecycle
type Phase string

const (
	PhaseDraft        Phase = "draft"
	PhaseReview       Phase = "review"
	PhaseApproval     Phase = "approval"
	PhaseRegistration Phase = "registration"
	PhaseDistributed  Phase = "distributed"
)

var phaseOrder = []Phase{PhaseDraft, PhaseReview, PhaseApproval, PhaseRegistration, PhaseDistributed}

// Phases returns the phases in lifecycle order
func Phases() []Phase {
	return append([]Phase{}, phaseOrder...)
}

// Index returns the position of the phase in lifecycle order, or -1
func (p Phase) Index() int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Responsibility names which office is expected to act on a step
type Responsibility string

const (
	ResponsibleNone         Responsibility = ""
	ResponsibleOwner        Responsibility = "owner"
	ResponsibleReviewOffice Responsibility = "review_office"
	ResponsibleCluster      Responsibility = "cluster"
	ResponsibleCentral      Responsibility = "central"
	ResponsiblePresident    Responsibility = "president"
	ResponsibleRouteOffice  Responsibility = "route_office"
)

// Step is one named position in a workflow sequence
type Step struct {
	ID          string            `json:"id"`
	Label       string            `json:"label"`
	StatusValue string            `json:"statusValue"`
	Phase       Phase             `json:"phase"`
	OfficeID    *offices.OfficeID `json:"officeId,omitempty"`
	Responsible Responsibility    `json:"responsible,omitempty"`
}

// TaskStatus is the state of one unit of pending work
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskCompleted TaskStatus = "completed"
	TaskReturned  TaskStatus = "returned"
	TaskRejected  TaskStatus = "rejected"
)

// Task is an assignable unit of work tied to one office
type Task struct {
	ID               int64             `json:"id"`
	VersionID        int64             `json:"versionId"`
	Phase            Phase             `json:"phase"`
	Step             string            `json:"step"`
	Status           TaskStatus        `json:"status"`
	AssignedOfficeID *offices.OfficeID `json:"assignedOfficeId"`
	AssignedRoleID   *int64            `json:"assignedRoleId,omitempty"`
	AssignedUserID   *int64            `json:"assignedUserId,omitempty"`
}

// WorkflowType tags which static pipeline a version follows
type WorkflowType string

const (
	WorkflowOriginator WorkflowType = "originator"
	WorkflowOffice     WorkflowType = "office"
)

// Version is the snapshot of a document version read from the remote system
type Version struct {
	ID             int64             `json:"id"`
	DocumentID     int64             `json:"documentId"`
	Status         string            `json:"status"`
	VersionNumber  int               `json:"versionNumber"`
	WorkflowType   WorkflowType      `json:"workflowType,omitempty"`
	OwnerOfficeID  *offices.OfficeID `json:"ownerOfficeId,omitempty"`
	ReviewOfficeID *offices.OfficeID `json:"reviewOfficeId,omitempty"`
}

// Document carries the header fields of the versioned document
type Document struct {
	ID            int64             `json:"id"`
	Title         string            `json:"title"`
	Code          string            `json:"code"`
	OwnerOfficeID *offices.OfficeID `json:"ownerOfficeId,omitempty"`
}

// RouteStepConfig is one author-configured office on a custom route
type RouteStepConfig struct {
	OfficeID  offices.OfficeID `json:"officeId"`
	StepOrder int              `json:"stepOrder"`
}

// TransitionAction is an action offered from the current position.
// For custom routes ToStatus already holds the action code.
type TransitionAction = workflows.Transition

// ActionCode is the backend's canonical identifier for a transition
type ActionCode string
