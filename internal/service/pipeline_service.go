package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

// ErrProjectBusy is returned when another ingestion run holds the project.
var ErrProjectBusy = fmt.Errorf("%w: project ingestion already running", appErr.ErrConflict)

type commitSyncer interface {
	Sync(ctx context.Context, projectID string) (*model.CommitSyncReport, error)
}

type projectIndexer interface {
	IndexProject(ctx context.Context, projectID string) (*model.IndexReport, error)
}

// PipelineService runs commit ingestion and tree indexing for a project. Runs
// are detached from the caller's cancellation and bounded by runTimeout; at
// most one run per project is in flight.
type PipelineService struct {
	commits    commitSyncer
	index      projectIndexer
	projects   projectStore
	access     access
	runTimeout time.Duration

	mu      sync.Mutex
	running map[string]struct{}
	idle    chan struct{}
}

func NewPipelineService(commits commitSyncer, index projectIndexer, projects projectStore, members memberStore, runTimeout time.Duration) *PipelineService {
	return &PipelineService{
		commits:    commits,
		index:      index,
		projects:   projects,
		access:     access{projects: projects, members: members},
		runTimeout: runTimeout,
		running:    make(map[string]struct{}),
	}
}

func (s *PipelineService) acquire(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[projectID]; ok {
		return false
	}
	s.running[projectID] = struct{}{}
	return true
}

func (s *PipelineService) release(projectID string) {
	s.mu.Lock()
	delete(s.running, projectID)
	if len(s.running) == 0 && s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
	s.mu.Unlock()
}

// Wait blocks until no run is in flight or ctx is done.
func (s *PipelineService) Wait(ctx context.Context) error {
	s.mu.Lock()
	if len(s.running) == 0 {
		s.mu.Unlock()
		return nil
	}
	if s.idle == nil {
		s.idle = make(chan struct{})
	}
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *PipelineService) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.runTimeout > 0 {
		return context.WithTimeout(ctx, s.runTimeout)
	}
	return context.WithCancel(ctx)
}

// Run ingests commits and indexes the tree concurrently. A failure of one half
// does not stop the other.
func (s *PipelineService) Run(ctx context.Context, projectID string) error {
	if !s.acquire(projectID) {
		return ErrProjectBusy
	}
	defer s.release(projectID)
	ctx, cancel := s.detach(ctx)
	defer cancel()

	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID))
	var g errgroup.Group
	var syncErr, indexErr error
	g.Go(func() error {
		_, syncErr = s.commits.Sync(ctx, projectID)
		if syncErr != nil {
			logger.Error("commit ingestion failed", zap.Error(syncErr))
		}
		return nil
	})
	g.Go(func() error {
		_, indexErr = s.index.IndexProject(ctx, projectID)
		if indexErr != nil {
			logger.Error("tree indexing failed", zap.Error(indexErr))
		}
		return nil
	})
	_ = g.Wait()
	return errors.Join(syncErr, indexErr)
}

func (s *PipelineService) Index(ctx context.Context, projectID string) (*model.IndexReport, error) {
	if !s.acquire(projectID) {
		return nil, ErrProjectBusy
	}
	defer s.release(projectID)
	ctx, cancel := s.detach(ctx)
	defer cancel()
	return s.index.IndexProject(ctx, projectID)
}

func (s *PipelineService) Sync(ctx context.Context, projectID string) (*model.CommitSyncReport, error) {
	if !s.acquire(projectID) {
		return nil, ErrProjectBusy
	}
	defer s.release(projectID)
	ctx, cancel := s.detach(ctx)
	defer cancel()
	return s.commits.Sync(ctx, projectID)
}

// SyncForUser is the explicit sync a project member asks for.
func (s *PipelineService) SyncForUser(ctx context.Context, userID, projectID string) (*model.CommitSyncReport, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.Sync(ctx, projectID)
}

// SyncAll syncs every active project in turn, skipping busy ones.
func (s *PipelineService) SyncAll(ctx context.Context) error {
	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	var errs []error
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.Sync(ctx, p.ID)
		if errors.Is(err, ErrProjectBusy) {
			logger.Info("skip busy project", zap.String("project_id", p.ID))
			continue
		}
		if err != nil {
			logger.Error("scheduled commit sync failed", zap.String("project_id", p.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("project %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}
