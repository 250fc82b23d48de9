package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docroute/portal-backend/internal/notifications"
	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/internal/workflow"
	"docroute/portal-backend/pkg/supersede"
)

// Confirmer asks the user to confirm an action before it is submitted
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// RefreshSignaler tells other open views that a version changed
type RefreshSignaler interface {
	Publish(ctx context.Context, event notifications.RefreshEvent) error
}

// ConfirmPrompt is the confirmation question for an action label
func ConfirmPrompt(label string) string {
	return `Are you sure you want to "` + label + `"?`
}

// WorkflowService executes transitions against the remote system
type WorkflowService struct {
	remote   RemoteClient
	signaler RefreshSignaler
	group    *supersede.Group
	logger   *zap.Logger
}

func NewWorkflowService(remote RemoteClient, signaler RefreshSignaler, group *supersede.Group, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{remote: remote, signaler: signaler, group: group, logger: logger}
}

// Transition executes one offered action from the snapshot's position.
// Every local check runs before the remote call, and a failed submit leaves
// the snapshot untouched. After a successful submit the server's version is
// adopted first, then tasks and the visible panel are re-fetched and the
// refresh signal is fired.
func (s *WorkflowService) Transition(
	ctx context.Context,
	sessionID string,
	snap *Snapshot,
	actingOfficeID *offices.OfficeID,
	cmd TransitionCommand,
	confirmer Confirmer,
) (*TransitionResult, error) {
	view := snap.View
	version := snap.Input.Version

	action, ok := view.FindAction(cmd.ToStatus, cmd.Kind)
	if !ok {
		return nil, NewActionUnavailableError(cmd.ToStatus, "action is not offered at the current step")
	}
	code, ok := workflow.ResolveAction(view.Shape, view.CurrentTask, action)
	if !ok {
		return nil, NewActionUnavailableError(action.Label, "action not mapped yet")
	}

	if !workflow.CanAct(view.CurrentTask, actingOfficeID) {
		return nil, NewNotAuthorizedError(action.Label)
	}

	req := ActionRequest{Action: code}
	if workflow.RequiresNote(action) {
		note := strings.TrimSpace(cmd.Note)
		if note == "" {
			return nil, NewNoteRequiredError(action.Label)
		}
		req.Note = note
	}

	if workflow.RequiresReviewOffice(code) {
		switch {
		case cmd.ReviewOfficeID != nil:
			req.ReviewOfficeID = cmd.ReviewOfficeID
		case version.ReviewOfficeID != nil:
			req.ReviewOfficeID = version.ReviewOfficeID
		default:
			return nil, NewReviewOfficeRequiredError(action.Label)
		}
	}

	prompt := ConfirmPrompt(action.Label)
	if confirmer == nil || !confirmer.Confirm(ctx, prompt) {
		return nil, NewNotConfirmedError(action.Label, prompt)
	}

	resp, err := s.remote.SubmitAction(ctx, version.ID, req)
	if err != nil {
		s.logger.Warn("transition rejected",
			zap.Int64("version_id", version.ID),
			zap.String("action", string(code)),
			zap.Error(err))
		return nil, NewRemoteRejectedError(action.Label, err)
	}

	result := &TransitionResult{
		ActionCode:    code,
		ActionMessage: resp.ActionMessage,
		Version:       resp.Version,
	}
	if result.Version.ID == 0 {
		result.Version.ID = version.ID
	}

	s.logger.Info("transition executed",
		zap.Int64("version_id", version.ID),
		zap.String("action", string(code)),
		zap.String("from_status", version.Status),
		zap.String("to_status", result.Version.Status))

	s.refresh(ctx, sessionID, result, cmd.VisiblePanel)
	s.signal(ctx, result, actingOfficeID)

	return result, nil
}

// refresh re-fetches open tasks and the visible side panel concurrently.
// Failures, including fetches replaced by a newer load, are recorded on the
// result so the caller knows the returned tasks or panel are stale. The
// transition itself already succeeded.
func (s *WorkflowService) refresh(ctx context.Context, sessionID string, result *TransitionResult, panel Panel) {
	versionID := result.Version.ID

	var mu sync.Mutex
	record := func(what string, err error) {
		if errors.Is(err, supersede.ErrSuperseded) {
			s.logger.Debug("refresh superseded", zap.String("resource", what))
		} else {
			s.logger.Warn("refresh after transition failed",
				zap.String("resource", what),
				zap.Int64("version_id", versionID),
				zap.Error(err))
		}
		mu.Lock()
		result.RefreshErrors = append(result.RefreshErrors, fmt.Sprintf("%s: %v", what, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		tasks, err := fetch(ctx, s.group, sessionID, "tasks", func(ctx context.Context) ([]workflow.Task, error) {
			return s.remote.ListTasks(ctx, versionID)
		})
		if err != nil {
			record("tasks", err)
			return nil
		}
		result.Tasks = tasks
		return nil
	})

	switch panel {
	case PanelMessages:
		g.Go(func() error {
			messages, err := fetch(ctx, s.group, sessionID, "panel", func(ctx context.Context) ([]Message, error) {
				return s.remote.ListMessages(ctx, versionID)
			})
			if err != nil {
				record("messages", err)
				return nil
			}
			result.Messages = messages
			return nil
		})
	case PanelActivity:
		g.Go(func() error {
			logs, err := fetch(ctx, s.group, sessionID, "panel", func(ctx context.Context) ([]ActivityLog, error) {
				return s.remote.ListActivity(ctx, versionID)
			})
			if err != nil {
				record("activity", err)
				return nil
			}
			result.Activity = logs
			return nil
		})
	}

	_ = g.Wait()
}

func (s *WorkflowService) signal(ctx context.Context, result *TransitionResult, actingOfficeID *offices.OfficeID) {
	if s.signaler == nil {
		return
	}

	event := notifications.RefreshEvent{
		VersionID:  result.Version.ID,
		ActionCode: string(result.ActionCode),
	}
	if actingOfficeID != nil {
		id := int64(*actingOfficeID)
		event.OfficeID = &id
	}

	if err := s.signaler.Publish(ctx, event); err != nil {
		s.logger.Warn("refresh signal failed", zap.Int64("version_id", result.Version.ID), zap.Error(err))
	}
}
