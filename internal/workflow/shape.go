package workflow

import (
	"docroute/portal-backend/internal/offices"
)

// ShapeKind discriminates the workflow shape of a version
type ShapeKind int

const (
	ShapeOriginatorLed ShapeKind = iota
	ShapeOfficeLed
	ShapeCustom
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeOriginatorLed:
		return originatorLed.Name()
	case ShapeOfficeLed:
		return officeLed.Name()
	case ShapeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Shape is decided once per load and threaded through evaluation.
// Route is only set for custom shapes and is already deduplicated.
type Shape struct {
	Kind  ShapeKind
	Route []RouteStepConfig
}

// DetermineShape picks the workflow shape of a version.
// A non-empty custom route wins over the workflowType tag. Without a route
// the tag decides, and office-only statuses override a stale originator tag.
func DetermineShape(version Version, route []RouteStepConfig) Shape {
	if deduped := DedupeRoute(route); len(deduped) > 0 {
		return Shape{Kind: ShapeCustom, Route: deduped}
	}
	if version.WorkflowType == WorkflowOffice || IsOfficePipelineStatus(version.Status) {
		return Shape{Kind: ShapeOfficeLed}
	}
	return Shape{Kind: ShapeOriginatorLed}
}

// IsCustom reports whether the shape is a custom route
func (s Shape) IsCustom() bool {
	return s.Kind == ShapeCustom
}

func (s Shape) String() string {
	return s.Kind.String()
}

// Steps returns the step sequence of the shape
func (s Shape) Steps(ownerOfficeID *offices.OfficeID, directory []offices.Office) []Step {
	switch s.Kind {
	case ShapeCustom:
		if steps := BuildCustomFlowSteps(s.Route, ownerOfficeID, directory); steps != nil {
			return steps
		}
		return originatorLed.Steps()
	case ShapeOfficeLed:
		return officeLed.Steps()
	default:
		return originatorLed.Steps()
	}
}

// Actions returns the actions offered from a position. Static pipelines key
// on the version status, custom routes on the current step id.
func (s Shape) Actions(status string, current Step) []TransitionAction {
	switch s.Kind {
	case ShapeCustom:
		return CustomActions(current.ID)
	case ShapeOfficeLed:
		return officeLed.Actions(status)
	default:
		return originatorLed.Actions(status)
	}
}
