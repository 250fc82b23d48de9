package documents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/internal/workflow"
	"docroute/portal-backend/pkg/supersede"
)

// DirectoryCacheKey is the cache key of the office directory
const DirectoryCacheKey = "offices"

type Service interface {
	GetWorkflowView(ctx context.Context, req ViewRequest) (*Snapshot, error)
	ExecuteTransition(ctx context.Context, req ViewRequest, cmd TransitionCommand, confirmer Confirmer) (*TransitionOutcome, error)
}

type documentService struct {
	remote    RemoteClient
	directory *offices.DirectoryCache
	clusters  *offices.ClusterMap
	group     *supersede.Group
	workflow  *WorkflowService
	logger    *zap.Logger
}

func NewService(
	remote RemoteClient,
	directory *offices.DirectoryCache,
	clusters *offices.ClusterMap,
	group *supersede.Group,
	workflow *WorkflowService,
	logger *zap.Logger,
) Service {
	return &documentService{
		remote:    remote,
		directory: directory,
		clusters:  clusters,
		group:     group,
		workflow:  workflow,
		logger:    logger,
	}
}

// fetch runs fn as the latest call for the session's resource. Calls without
// a session are not tracked.
func fetch[T any](ctx context.Context, group *supersede.Group, sessionID, resource string, fn func(ctx context.Context) (T, error)) (T, error) {
	if group == nil || sessionID == "" {
		return fn(ctx)
	}
	return supersede.Do(ctx, group, sessionID+"/"+resource, fn)
}

// GetWorkflowView loads a version and everything its view depends on.
// The version, its document and its tasks are required. Route steps and the
// office directory only enrich the view, so their failures become warnings.
// A fetch replaced by a newer load for the same session fails the whole load
// with supersede.ErrSuperseded instead of degrading.
func (s *documentService) GetWorkflowView(ctx context.Context, req ViewRequest) (*Snapshot, error) {
	version, err := fetch(ctx, s.group, req.SessionID, "version", func(ctx context.Context) (*workflow.Version, error) {
		return s.remote.GetVersion(ctx, req.VersionID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load version %d: %w", req.VersionID, err)
	}

	in := workflow.ViewInput{
		Version:        *version,
		Clusters:       s.clusters,
		ActingOfficeID: req.ActingOfficeID,
	}

	var mu sync.Mutex
	var degraded []string
	degrade := func(what string, err error) {
		s.logger.Warn("workflow view degraded",
			zap.String("resource", what),
			zap.Int64("version_id", version.ID),
			zap.Error(err))
		mu.Lock()
		degraded = append(degraded, fmt.Sprintf("%s unavailable", what))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	if version.DocumentID != 0 {
		g.Go(func() error {
			doc, err := fetch(gctx, s.group, req.SessionID, "document", func(ctx context.Context) (*workflow.Document, error) {
				return s.remote.GetDocument(ctx, version.DocumentID)
			})
			if err != nil {
				return fmt.Errorf("failed to load document %d: %w", version.DocumentID, err)
			}
			in.Document = *doc
			return nil
		})
	}
	g.Go(func() error {
		tasks, err := fetch(gctx, s.group, req.SessionID, "tasks", func(ctx context.Context) ([]workflow.Task, error) {
			return s.remote.ListTasks(ctx, version.ID)
		})
		if err != nil {
			return fmt.Errorf("failed to load tasks of version %d: %w", version.ID, err)
		}
		in.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		route, err := fetch(gctx, s.group, req.SessionID, "route", func(ctx context.Context) ([]workflow.RouteStepConfig, error) {
			return s.remote.ListRouteSteps(ctx, version.ID)
		})
		if errors.Is(err, supersede.ErrSuperseded) {
			return fmt.Errorf("failed to load route steps of version %d: %w", version.ID, err)
		}
		if err != nil {
			degrade("route steps", err)
			return nil
		}
		in.Route = route
		return nil
	})
	g.Go(func() error {
		directory, err := s.loadDirectory(gctx)
		if errors.Is(err, supersede.ErrSuperseded) {
			return fmt.Errorf("failed to load office directory: %w", err)
		}
		if err != nil {
			degrade("office directory", err)
			return nil
		}
		in.Directory = directory
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := workflow.BuildView(in)
	view.Warnings = append(view.Warnings, degraded...)
	for _, w := range view.Warnings {
		s.logger.Warn("workflow view warning", zap.Int64("version_id", version.ID), zap.String("warning", w))
	}

	s.logger.Debug("workflow view built",
		zap.Int64("version_id", version.ID),
		zap.String("shape", view.ShapeName),
		zap.Stringer("position", view.Position),
		zap.Bool("can_act", view.Header.CanAct))

	return &Snapshot{Input: in, View: view}, nil
}

func (s *documentService) loadDirectory(ctx context.Context) ([]offices.Office, error) {
	if s.directory == nil {
		return s.remote.ListOffices(ctx)
	}
	return s.directory.GetOrLoad(ctx, DirectoryCacheKey, s.remote.ListOffices)
}

// ExecuteTransition loads a fresh snapshot, executes the action and rebuilds
// the view from the server's version and the re-fetched tasks.
func (s *documentService) ExecuteTransition(ctx context.Context, req ViewRequest, cmd TransitionCommand, confirmer Confirmer) (*TransitionOutcome, error) {
	snap, err := s.GetWorkflowView(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.workflow.Transition(ctx, req.SessionID, snap, req.ActingOfficeID, cmd, confirmer)
	if err != nil {
		return nil, err
	}

	in := snap.Input
	in.Version = result.Version
	in.Tasks = result.Tasks
	view := workflow.BuildView(in)

	return &TransitionOutcome{Result: *result, View: view}, nil
}
