package workflow

import (
	"fmt"
	"sort"
	"strings"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/pkg/workflows"
)

// Step ids of a custom route. Loop steps are suffixed with ":<officeID>".
const (
	StepDraft                   = "draft"
	StepCustomReview            = "custom_review_office"
	StepCustomOriginatorCheck   = "custom_originator_check"
	StepCustomApproval          = "custom_approval_office"
	StepCustomOriginatorProceed = "custom_originator_proceed"
	StepRegistration            = "registration"
	StepDistribution            = "distribution"
	StepDistributed             = "distributed"
)

// Statuses only a custom route reports
const (
	StatusOfficeApproval    = "For Office Approval"
	StatusOriginatorProceed = "For Originator Proceed"
)

var customMachine = newCustomMachine()

func newCustomMachine() *workflows.StateMachine {
	table := make(map[string][]TransitionAction, len(customActionPairs)+1)
	for base, pair := range customActionPairs {
		actions := []TransitionAction{}
		if pair.forward != "" {
			actions = append(actions, forward(string(pair.forward), pair.forwardLabel))
		}
		if pair.ret != "" {
			actions = append(actions, TransitionAction{ToStatus: string(pair.ret), Label: LabelReturnToEdit, Kind: workflows.KindReturn})
		}
		table[base] = actions
	}
	table[StepDistributed] = []TransitionAction{}
	return workflows.NewStateMachine(table)
}

// DedupeRoute sorts configs by stepOrder and keeps the first occurrence of each office
func DedupeRoute(configs []RouteStepConfig) []RouteStepConfig {
	sorted := append([]RouteStepConfig{}, configs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StepOrder < sorted[j].StepOrder
	})

	seen := make(map[offices.OfficeID]bool, len(sorted))
	route := make([]RouteStepConfig, 0, len(sorted))
	for _, c := range sorted {
		if seen[c.OfficeID] {
			continue
		}
		seen[c.OfficeID] = true
		route = append(route, c)
	}
	return route
}

// BuildCustomFlowSteps synthesizes the step sequence of a custom route.
// It returns nil when no office is configured, in which case the caller
// falls back to a static pipeline.
func BuildCustomFlowSteps(configs []RouteStepConfig, ownerOfficeID *offices.OfficeID, directory []offices.Office) []Step {
	route := DedupeRoute(configs)
	if len(route) == 0 {
		return nil
	}

	var owner *offices.OfficeID
	ownerName := ""
	if ownerOfficeID != nil {
		id := *ownerOfficeID
		owner = &id
		if o, ok := offices.FindByID(directory, id); ok {
			ownerName = o.Name
		}
	}

	steps := make([]Step, 0, 2*len(route)+6)
	steps = append(steps, Step{
		ID: StepDraft, Label: "Draft", StatusValue: StatusDraft, Phase: PhaseDraft,
		OfficeID: owner, Responsible: ResponsibleOwner,
	})

	for _, c := range route {
		id := c.OfficeID
		steps = append(steps, Step{
			ID:          CompositeStepID(StepCustomReview, id),
			Label:       "Review by " + displayName(directory, id),
			StatusValue: StatusOfficeReview,
			Phase:       PhaseReview,
			OfficeID:    &id,
			Responsible: ResponsibleRouteOffice,
		})
	}

	steps = append(steps, Step{
		ID: StepCustomOriginatorCheck, Label: checkpointLabel("Originator check", ownerName),
		StatusValue: StatusOriginatorCheck, Phase: PhaseReview,
		OfficeID: owner, Responsible: ResponsibleOwner,
	})

	for _, c := range route {
		id := c.OfficeID
		steps = append(steps, Step{
			ID:          CompositeStepID(StepCustomApproval, id),
			Label:       "Approval by " + displayName(directory, id),
			StatusValue: StatusOfficeApproval,
			Phase:       PhaseApproval,
			OfficeID:    &id,
			Responsible: ResponsibleRouteOffice,
		})
	}

	steps = append(steps, Step{
		ID: StepCustomOriginatorProceed, Label: checkpointLabel("Originator proceed", ownerName),
		StatusValue: StatusOriginatorProceed, Phase: PhaseApproval,
		OfficeID: owner, Responsible: ResponsibleOwner,
	})

	return append(steps, tailSteps()...)
}

// CustomActions returns the actions offered from a custom route step
func CustomActions(stepID string) []TransitionAction {
	return customMachine.GetAllowedTransitions(CustomStepBase(stepID))
}

// CompositeStepID joins a loop step id with the office holding it
func CompositeStepID(base string, officeID offices.OfficeID) string {
	return fmt.Sprintf("%s:%d", base, officeID)
}

// CustomStepBase strips the office suffix from a composite step id
func CustomStepBase(stepID string) string {
	base, _, _ := strings.Cut(stepID, ":")
	return base
}

// IsLoopStep reports whether a base step id repeats once per routed office.
// Composite ids already carry their office and report false.
func IsLoopStep(stepID string) bool {
	return stepID == StepCustomReview || stepID == StepCustomApproval
}

func displayName(directory []offices.Office, id offices.OfficeID) string {
	if o, ok := offices.FindByID(directory, id); ok && o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("Office #%d", id)
}

func checkpointLabel(label, ownerName string) string {
	if ownerName == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, ownerName)
}
