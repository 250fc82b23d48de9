package workflow

import (
	"docroute/portal-backend/pkg/workflows"
)

// Static pipeline action codes
const (
	CodeSubmitForOfficeReview ActionCode = "SUBMIT_FOR_OFFICE_REVIEW"
	CodeForwardToVPReview     ActionCode = "FORWARD_TO_VP_REVIEW"
	CodeReturnToOriginator    ActionCode = "RETURN_TO_ORIGINATOR_CHECK"
	CodeForwardToVPApproval   ActionCode = "FORWARD_TO_VP_APPROVAL"
	CodeForwardToPresident    ActionCode = "FORWARD_TO_PRESIDENT"
	CodeForwardToRegistration ActionCode = "FORWARD_TO_REGISTRATION"
	CodeRegister              ActionCode = "REGISTER"
	CodeDistribute            ActionCode = "DISTRIBUTE"
	CodeReturnToDraft         ActionCode = "RETURN_TO_DRAFT"

	CodeOfficeSubmitForVPReview  ActionCode = "OFFICE_SUBMIT_FOR_VP_REVIEW"
	CodeOfficeForwardToQAReview  ActionCode = "OFFICE_FORWARD_TO_QA_REVIEW"
	CodeOfficeReturnToCheck      ActionCode = "OFFICE_RETURN_TO_OFFICE_CHECK"
	CodeOfficeForwardToVPApprove ActionCode = "OFFICE_FORWARD_TO_VP_APPROVAL"
	CodeOfficeForwardToPresident ActionCode = "OFFICE_FORWARD_TO_PRESIDENT"
)

// Custom route action codes
const (
	CodeCustomSubmitForReview       ActionCode = "CUSTOM_SUBMIT_FOR_REVIEW"
	CodeCustomForwardReview         ActionCode = "CUSTOM_FORWARD_REVIEW"
	CodeCustomReturnFromReview      ActionCode = "CUSTOM_RETURN_FROM_REVIEW"
	CodeCustomStartApproval         ActionCode = "CUSTOM_START_APPROVAL"
	CodeCustomReturnFromCheck       ActionCode = "CUSTOM_RETURN_FROM_CHECK"
	CodeCustomForwardApproval       ActionCode = "CUSTOM_FORWARD_APPROVAL"
	CodeCustomReturnFromApproval    ActionCode = "CUSTOM_RETURN_FROM_APPROVAL"
	CodeCustomProceedToRegistration ActionCode = "CUSTOM_PROCEED_TO_REGISTRATION"
	CodeCustomReturnFromProceed     ActionCode = "CUSTOM_RETURN_FROM_PROCEED"
	CodeCustomRegister              ActionCode = "CUSTOM_REGISTER"
	CodeCustomReturnFromReg         ActionCode = "CUSTOM_RETURN_FROM_REGISTRATION"
	CodeCustomDistribute            ActionCode = "CUSTOM_DISTRIBUTE"
)

// staticActionCodes maps every target status of both static tables to its code
var staticActionCodes = map[string]ActionCode{
	StatusOfficeReview:      CodeSubmitForOfficeReview,
	StatusVPReview:          CodeForwardToVPReview,
	StatusOriginatorCheck:   CodeReturnToOriginator,
	StatusVPApproval:        CodeForwardToVPApproval,
	StatusPresidentApproval: CodeForwardToPresident,
	StatusRegistration:      CodeForwardToRegistration,
	StatusDistribution:      CodeRegister,
	StatusDistributed:       CodeDistribute,
	StatusDraft:             CodeReturnToDraft,

	StatusOfficeVPReview:          CodeOfficeSubmitForVPReview,
	StatusOfficeQAReview:          CodeOfficeForwardToQAReview,
	StatusOfficeCheck:             CodeOfficeReturnToCheck,
	StatusOfficeVPApproval:        CodeOfficeForwardToVPApprove,
	StatusOfficePresidentApproval: CodeOfficeForwardToPresident,
}

type customPair struct {
	forward      ActionCode
	forwardLabel string
	ret          ActionCode
}

// customActionPairs is keyed by base step id
var customActionPairs = map[string]customPair{
	StepDraft:                   {forward: CodeCustomSubmitForReview, forwardLabel: "Send for review"},
	StepCustomReview:            {forward: CodeCustomForwardReview, forwardLabel: "Forward to next reviewer", ret: CodeCustomReturnFromReview},
	StepCustomOriginatorCheck:   {forward: CodeCustomStartApproval, forwardLabel: "Send for approval", ret: CodeCustomReturnFromCheck},
	StepCustomApproval:          {forward: CodeCustomForwardApproval, forwardLabel: "Forward to next approver", ret: CodeCustomReturnFromApproval},
	StepCustomOriginatorProceed: {forward: CodeCustomProceedToRegistration, forwardLabel: "Proceed to registration", ret: CodeCustomReturnFromProceed},
	StepRegistration:            {forward: CodeCustomRegister, forwardLabel: "Register document", ret: CodeCustomReturnFromReg},
	StepDistribution:            {forward: CodeCustomDistribute, forwardLabel: "Distribute document"},
}

// ResolveStaticAction maps a target status to its action code.
// Unmapped statuses report false and must not be submitted.
func ResolveStaticAction(targetStatus string) (ActionCode, bool) {
	code, ok := staticActionCodes[targetStatus]
	return code, ok
}

// ResolveCustomAction maps the current task's step and the action kind to a code.
// Composite step ids are reduced to their base id first.
func ResolveCustomAction(taskStepID string, kind workflows.TransitionKind) (ActionCode, bool) {
	pair, ok := customActionPairs[CustomStepBase(taskStepID)]
	if !ok {
		return "", false
	}
	var code ActionCode
	switch kind {
	case workflows.KindForward:
		code = pair.forward
	case workflows.KindReturn:
		code = pair.ret
	}
	return code, code != ""
}

// ResolveAction resolves the code of an offered action for the given shape.
// Custom routes key on the task step, so they need a task.
func ResolveAction(shape Shape, task *Task, action TransitionAction) (ActionCode, bool) {
	if shape.IsCustom() {
		if task == nil {
			return "", false
		}
		return ResolveCustomAction(task.Step, action.Kind)
	}
	return ResolveStaticAction(action.ToStatus)
}

// RequiresNote reports whether the action needs a non-empty note
func RequiresNote(action TransitionAction) bool {
	return action.Kind == workflows.KindReturn
}

// RequiresReviewOffice reports whether the code needs an explicit review office
func RequiresReviewOffice(code ActionCode) bool {
	return code == CodeSubmitForOfficeReview
}
