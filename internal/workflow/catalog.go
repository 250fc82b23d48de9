package workflow

import (
	"docroute/portal-backend/pkg/workflows"
)

// Version statuses shared by both static pipelines
const (
	StatusDraft        = "Draft"
	StatusRegistration = "For Registration"
	StatusDistribution = "For Distribution"
	StatusDistributed  = "Distributed"
)

// Originator-led statuses
const (
	StatusOfficeReview      = "For Office Review"
	StatusVPReview          = "For VP Review"
	StatusOriginatorCheck   = "For Originator Check"
	StatusVPApproval        = "For VP Approval"
	StatusPresidentApproval = "For President Approval"
)

// Office-led statuses
const (
	StatusOfficeVPReview          = "For VP Review (Office)"
	StatusOfficeQAReview          = "For QA Review (Office)"
	StatusOfficeCheck             = "For Office Check (Office)"
	StatusOfficeVPApproval        = "For VP Approval (Office)"
	StatusOfficePresidentApproval = "For President Approval (Office)"
)

// LabelReturnToEdit is the label of every return action
const LabelReturnToEdit = "Return to edit"

// Pipeline is a fixed step sequence paired with its status-keyed transition table
type Pipeline struct {
	name    string
	steps   []Step
	machine *workflows.StateMachine
}

// Name returns the pipeline name
func (p *Pipeline) Name() string {
	return p.name
}

// Steps returns a copy of the pipeline's ordered steps
func (p *Pipeline) Steps() []Step {
	return append([]Step{}, p.steps...)
}

// Actions returns the actions offered from a status. Unknown and terminal
// statuses yield an empty list.
func (p *Pipeline) Actions(status string) []TransitionAction {
	return p.machine.GetAllowedTransitions(status)
}

func forward(to, label string) TransitionAction {
	return TransitionAction{ToStatus: to, Label: label, Kind: workflows.KindForward}
}

func returnToEdit() TransitionAction {
	return TransitionAction{ToStatus: StatusDraft, Label: LabelReturnToEdit, Kind: workflows.KindReturn}
}

// withReturn appends the uniform return-to-edit action
func withReturn(actions ...TransitionAction) []TransitionAction {
	return append(actions, returnToEdit())
}

// tail is shared by both static pipelines from registration onwards
func tailSteps() []Step {
	return []Step{
		{ID: "registration", Label: "Registration", StatusValue: StatusRegistration, Phase: PhaseRegistration, Responsible: ResponsibleCentral},
		{ID: "distribution", Label: "Distribution", StatusValue: StatusDistribution, Phase: PhaseRegistration, Responsible: ResponsibleCentral},
		{ID: "distributed", Label: "Distributed", StatusValue: StatusDistributed, Phase: PhaseDistributed},
	}
}

func tailTransitions(table map[string][]TransitionAction) {
	table[StatusRegistration] = withReturn(forward(StatusDistribution, "Register document"))
	table[StatusDistribution] = withReturn(forward(StatusDistributed, "Distribute document"))
	table[StatusDistributed] = []TransitionAction{}
}

func newOriginatorLed() *Pipeline {
	steps := append([]Step{
		{ID: "draft", Label: "Draft", StatusValue: StatusDraft, Phase: PhaseDraft, Responsible: ResponsibleOwner},
		{ID: "office_review", Label: "Office review", StatusValue: StatusOfficeReview, Phase: PhaseReview, Responsible: ResponsibleReviewOffice},
		{ID: "vp_review", Label: "VP review", StatusValue: StatusVPReview, Phase: PhaseReview, Responsible: ResponsibleCluster},
		{ID: "originator_check", Label: "Originator check", StatusValue: StatusOriginatorCheck, Phase: PhaseReview, Responsible: ResponsibleOwner},
		{ID: "vp_approval", Label: "VP approval", StatusValue: StatusVPApproval, Phase: PhaseApproval, Responsible: ResponsibleCluster},
		{ID: "president_approval", Label: "President approval", StatusValue: StatusPresidentApproval, Phase: PhaseApproval, Responsible: ResponsiblePresident},
	}, tailSteps()...)

	table := map[string][]TransitionAction{
		StatusDraft:           {forward(StatusOfficeReview, "Send to Office for review")},
		StatusOfficeReview:    withReturn(forward(StatusVPReview, "Forward to VP for review")),
		StatusVPReview:        withReturn(forward(StatusOriginatorCheck, "Return to originator for checking")),
		StatusOriginatorCheck: withReturn(forward(StatusVPApproval, "Forward to VP for approval")),
		StatusVPApproval: withReturn(
			forward(StatusPresidentApproval, "Forward to President for approval"),
			forward(StatusRegistration, "Forward to registration"),
		),
		StatusPresidentApproval: withReturn(forward(StatusRegistration, "Forward to registration")),
	}
	tailTransitions(table)

	return &Pipeline{name: "originator-led", steps: steps, machine: workflows.NewStateMachine(table)}
}

func newOfficeLed() *Pipeline {
	steps := append([]Step{
		{ID: "draft", Label: "Draft", StatusValue: StatusDraft, Phase: PhaseDraft, Responsible: ResponsibleOwner},
		{ID: "vp_review_office", Label: "VP review", StatusValue: StatusOfficeVPReview, Phase: PhaseReview, Responsible: ResponsibleCluster},
		{ID: "qa_review_office", Label: "QA review", StatusValue: StatusOfficeQAReview, Phase: PhaseReview, Responsible: ResponsibleCentral},
		{ID: "office_check", Label: "Office check", StatusValue: StatusOfficeCheck, Phase: PhaseReview, Responsible: ResponsibleOwner},
		{ID: "vp_approval_office", Label: "VP approval", StatusValue: StatusOfficeVPApproval, Phase: PhaseApproval, Responsible: ResponsibleCluster},
		{ID: "president_approval_office", Label: "President approval", StatusValue: StatusOfficePresidentApproval, Phase: PhaseApproval, Responsible: ResponsiblePresident},
	}, tailSteps()...)

	table := map[string][]TransitionAction{
		StatusDraft:          {forward(StatusOfficeVPReview, "Send to VP for review")},
		StatusOfficeVPReview: withReturn(forward(StatusOfficeQAReview, "Forward to QA for review")),
		StatusOfficeQAReview: withReturn(forward(StatusOfficeCheck, "Return to office for checking")),
		StatusOfficeCheck:    withReturn(forward(StatusOfficeVPApproval, "Forward to VP for approval")),
		StatusOfficeVPApproval: withReturn(
			forward(StatusOfficePresidentApproval, "Forward to President for approval"),
			forward(StatusRegistration, "Forward to registration"),
		),
		StatusOfficePresidentApproval: withReturn(forward(StatusRegistration, "Forward to registration")),
	}
	tailTransitions(table)

	return &Pipeline{name: "office-led", steps: steps, machine: workflows.NewStateMachine(table)}
}

var (
	originatorLed = newOriginatorLed()
	officeLed     = newOfficeLed()

	// statuses that only the office-led pipeline uses
	officePipelineStatuses = map[string]bool{
		StatusOfficeVPReview:          true,
		StatusOfficeQAReview:          true,
		StatusOfficeCheck:             true,
		StatusOfficeVPApproval:        true,
		StatusOfficePresidentApproval: true,
	}
)

// OriginatorLed returns the originator-led pipeline
func OriginatorLed() *Pipeline {
	return originatorLed
}

// OfficeLed returns the office-led pipeline
func OfficeLed() *Pipeline {
	return officeLed
}

// IsOfficePipelineStatus reports whether status belongs only to the office-led pipeline
func IsOfficePipelineStatus(status string) bool {
	return officePipelineStatuses[status]
}
