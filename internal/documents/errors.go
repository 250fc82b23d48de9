package documents

import (
	"errors"
	"fmt"
)

// ErrorCode represents the reason a transition was not executed
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Offered action has no backend action code
	ErrCodeActionUnavailable
	// Acting office does not hold the current task
	ErrCodeNotAuthorized
	// Return action submitted without a note
	ErrCodeNoteRequired
	// Office review hand-off without a reviewing office
	ErrCodeReviewOfficeRequired
	// User did not confirm the action
	ErrCodeNotConfirmed
	// Remote system refused the action
	ErrCodeRemoteRejected
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeActionUnavailable:
		return "action_unavailable"
	case ErrCodeNotAuthorized:
		return "not_authorized"
	case ErrCodeNoteRequired:
		return "note_required"
	case ErrCodeReviewOfficeRequired:
		return "review_office_required"
	case ErrCodeNotConfirmed:
		return "not_confirmed"
	case ErrCodeRemoteRejected:
		return "remote_rejected"
	default:
		return "unknown"
	}
}

// ExecutionError reports why a transition stopped.
// Message is safe to show to the user as is.
type ExecutionError struct {
	Code    ErrorCode
	Action  string
	Message string
	Prompt  string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transition error [%s]: %s", e.Action, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewActionUnavailableError creates an error for an action without a code
func NewActionUnavailableError(action, reason string) *ExecutionError {
	return &ExecutionError{Code: ErrCodeActionUnavailable, Action: action, Message: reason}
}

// NewNotAuthorizedError creates an error for an office that may not act
func NewNotAuthorizedError(action string) *ExecutionError {
	return &ExecutionError{
		Code:    ErrCodeNotAuthorized,
		Action:  action,
		Message: "your office is not assigned to the current step",
	}
}

// NewNoteRequiredError creates an error for a return action without a note
func NewNoteRequiredError(action string) *ExecutionError {
	return &ExecutionError{
		Code:    ErrCodeNoteRequired,
		Action:  action,
		Message: "a note is required to return the document for editing",
	}
}

// NewReviewOfficeRequiredError creates an error for a missing reviewing office
func NewReviewOfficeRequiredError(action string) *ExecutionError {
	return &ExecutionError{
		Code:    ErrCodeReviewOfficeRequired,
		Action:  action,
		Message: "select the office that will review the document",
	}
}

// NewNotConfirmedError creates an error for an unconfirmed action
func NewNotConfirmedError(action, prompt string) *ExecutionError {
	return &ExecutionError{
		Code:    ErrCodeNotConfirmed,
		Action:  action,
		Message: "confirmation required",
		Prompt:  prompt,
	}
}

// NewRemoteRejectedError wraps a remote failure, keeping its message verbatim
func NewRemoteRejectedError(action string, err error) *ExecutionError {
	message := err.Error()
	var remote *RemoteError
	if errors.As(err, &remote) {
		message = remote.Message
	}
	return &ExecutionError{Code: ErrCodeRemoteRejected, Action: action, Message: message, Err: err}
}

// CodeOf returns the execution error code carried by err
func CodeOf(err error) ErrorCode {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Code
	}
	return ErrCodeNone
}
