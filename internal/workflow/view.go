package workflow

import (
	"fmt"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/pkg/workflows"
)

// Version action keys
const (
	VersionActionDownload       = "download"
	VersionActionUploadRevision = "upload_revision"
	VersionActionViewRoute      = "view_route"
)

// ViewInput is the snapshot a view is computed from
type ViewInput struct {
	Document       Document
	Version        Version
	Tasks          []Task
	Route          []RouteStepConfig
	Directory      []offices.Office
	Clusters       *offices.ClusterMap
	ActingOfficeID *offices.OfficeID
}

// HeaderAction is a transition button in the document header
type HeaderAction struct {
	Label        string                   `json:"label"`
	ToStatus     string                   `json:"toStatus"`
	Kind         workflows.TransitionKind `json:"kind"`
	Code         ActionCode               `json:"code,omitempty"`
	RequiresNote bool                     `json:"requiresNote"`
	Enabled      bool                     `json:"enabled"`
}

// VersionAction is a per-version utility button
type VersionAction struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// HeaderState is the view-model pushed to the document header
type HeaderState struct {
	Title          string          `json:"title"`
	Code           string          `json:"code"`
	Status         string          `json:"status"`
	VersionNumber  int             `json:"versionNumber"`
	CanAct         bool            `json:"canAct"`
	HeaderActions  []HeaderAction  `json:"headerActions"`
	VersionActions []VersionAction `json:"versionActions"`
}

// View is the complete workflow view of one version
type View struct {
	Header                  HeaderState       `json:"header"`
	ShapeName               string            `json:"shape"`
	Position                Position          `json:"position"`
	Steps                   []StepProgress    `json:"steps"`
	Phases                  []PhaseProgress   `json:"phases"`
	CurrentTask             *Task             `json:"currentTask,omitempty"`
	AssignedOfficeID        *offices.OfficeID `json:"assignedOfficeId,omitempty"`
	ResponsibleOfficeID     *offices.OfficeID `json:"responsibleOfficeId,omitempty"`
	NextResponsibleOfficeID *offices.OfficeID `json:"nextResponsibleOfficeId,omitempty"`
	Warnings                []string          `json:"warnings,omitempty"`

	Shape   Shape              `json:"-"`
	Actions []TransitionAction `json:"-"`
}

// BuildView evaluates the workflow for one snapshot. It is pure: the same
// input always yields the same view, and missing reference data only removes
// hints instead of failing.
func BuildView(in ViewInput) View {
	shape := DetermineShape(in.Version, in.Route)
	owner := in.Version.OwnerOfficeID
	if owner == nil {
		owner = in.Document.OwnerOfficeID
	}

	var warnings []string
	task, open := CurrentTask(in.Tasks)
	if open > 1 {
		warnings = append(warnings, fmt.Sprintf("%d open tasks; using task %d", open, task.ID))
	}

	steps := shape.Steps(owner, in.Directory)
	pos := FindCurrentStep(in.Version.Status, steps, task, shape.IsCustom())
	stepRows, phaseRows := Progress(pos, steps)
	canAct := CanAct(task, in.ActingOfficeID)

	actions := shape.Actions(in.Version.Status, pos.Step)
	headerActions := make([]HeaderAction, 0, len(actions))
	for _, a := range actions {
		code, ok := ResolveAction(shape, task, a)
		headerActions = append(headerActions, HeaderAction{
			Label:        a.Label,
			ToStatus:     a.ToStatus,
			Kind:         a.Kind,
			Code:         code,
			RequiresNote: RequiresNote(a),
			Enabled:      canAct && ok,
		})
	}

	versionActions := []VersionAction{
		{Key: VersionActionDownload, Label: "Download", Enabled: true},
		{Key: VersionActionUploadRevision, Label: "Upload revision", Enabled: canAct && pos.Phase == PhaseDraft},
	}
	if shape.IsCustom() {
		versionActions = append(versionActions, VersionAction{Key: VersionActionViewRoute, Label: "View route", Enabled: true})
	}

	resolver := responsibleResolver{in: in, owner: owner}
	current, err := resolver.resolve(pos.Step)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	var next *offices.OfficeID
	if pos.Next != nil {
		next, err = resolver.resolve(*pos.Next)
		if err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	var assigned *offices.OfficeID
	if task != nil {
		assigned = task.AssignedOfficeID
	}

	return View{
		Header: HeaderState{
			Title:          in.Document.Title,
			Code:           in.Document.Code,
			Status:         in.Version.Status,
			VersionNumber:  in.Version.VersionNumber,
			CanAct:         canAct,
			HeaderActions:  headerActions,
			VersionActions: versionActions,
		},
		ShapeName:               shape.String(),
		Position:                pos,
		Steps:                   stepRows,
		Phases:                  phaseRows,
		CurrentTask:             task,
		AssignedOfficeID:        assigned,
		ResponsibleOfficeID:     current,
		NextResponsibleOfficeID: next,
		Warnings:                warnings,
		Shape:                   shape,
		Actions:                 actions,
	}
}

// FindAction returns the offered action matching a target and kind.
// An empty kind matches any kind.
func (v View) FindAction(toStatus string, kind workflows.TransitionKind) (TransitionAction, bool) {
	for _, a := range v.Actions {
		if a.ToStatus == toStatus && (kind == "" || a.Kind == kind) {
			return a, true
		}
	}
	return TransitionAction{}, false
}

type responsibleResolver struct {
	in    ViewInput
	owner *offices.OfficeID
}

// resolve returns the office expected to act on a step, or nil when unknown
func (r responsibleResolver) resolve(step Step) (*offices.OfficeID, error) {
	switch step.Responsible {
	case ResponsibleOwner:
		return r.owner, nil
	case ResponsibleReviewOffice:
		return r.in.Version.ReviewOfficeID, nil
	case ResponsibleRouteOffice:
		return step.OfficeID, nil
	case ResponsibleCentral:
		return r.byCode(offices.CodeCentralOffice)
	case ResponsiblePresident:
		return r.byCode(offices.CodePresidentOffice)
	case ResponsibleCluster:
		if r.owner == nil || r.in.Clusters == nil {
			return nil, nil
		}
		ownerCode := offices.CodeOf(r.in.Directory, *r.owner)
		if ownerCode == "" {
			return nil, fmt.Errorf("owner office %d is not in the directory", *r.owner)
		}
		cluster, err := r.in.Clusters.Resolve(ownerCode)
		if err != nil {
			return nil, err
		}
		return r.byCode(cluster)
	default:
		return nil, nil
	}
}

func (r responsibleResolver) byCode(code string) (*offices.OfficeID, error) {
	if len(r.in.Directory) == 0 {
		return nil, nil
	}
	id, ok := offices.ResolveOfficeID(r.in.Directory, code)
	if !ok {
		return nil, fmt.Errorf("office %s is not in the directory", code)
	}
	return &id, nil
}
