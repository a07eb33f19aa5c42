package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type blockingSyncer struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	err     error
}

func (b *blockingSyncer) Sync(ctx context.Context, projectID string) (*model.CommitSyncReport, error) {
	b.calls.Add(1)
	if b.started != nil {
		b.started <- struct{}{}
		<-b.release
	}
	return &model.CommitSyncReport{ProjectID: projectID}, b.err
}

type stubIndexer struct {
	calls  atomic.Int32
	err    error
	ctxErr error
}

func (s *stubIndexer) IndexProject(ctx context.Context, projectID string) (*model.IndexReport, error) {
	s.calls.Add(1)
	s.ctxErr = ctx.Err()
	return &model.IndexReport{ProjectID: projectID}, s.err
}

func TestPipelineRunsBothHalvesDespiteFailure(t *testing.T) {
	syncer := &blockingSyncer{err: errors.New("github down")}
	indexer := &stubIndexer{}
	svc := NewPipelineService(syncer, indexer, newFakeProjectDB(), newFakeProjectDB(), time.Minute)

	err := svc.Run(context.Background(), "p1")
	require.Error(t, err)
	require.Equal(t, int32(1), syncer.calls.Load())
	require.Equal(t, int32(1), indexer.calls.Load())
}

func TestPipelineDetachesFromCallerCancel(t *testing.T) {
	indexer := &stubIndexer{}
	svc := NewPipelineService(&blockingSyncer{}, indexer, newFakeProjectDB(), newFakeProjectDB(), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.Run(ctx, "p1"))
	require.NoError(t, indexer.ctxErr)
}

func TestPipelineSkipsConcurrentRunForSameProject(t *testing.T) {
	syncer := &blockingSyncer{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewPipelineService(syncer, &stubIndexer{}, newFakeProjectDB(), newFakeProjectDB(), time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background(), "p1")
		done <- err
	}()
	<-syncer.started

	_, err := svc.Sync(context.Background(), "p1")
	require.ErrorIs(t, err, ErrProjectBusy)
	require.ErrorIs(t, err, appErr.ErrConflict)

	close(syncer.release)
	require.NoError(t, <-done)

	syncer.started = nil
	_, err = svc.Sync(context.Background(), "p1")
	require.NoError(t, err)
}

func TestSyncAllVisitsActiveProjects(t *testing.T) {
	db := newFakeProjectDB()
	db.addProject("p1", "acme/a", "")
	db.addProject("p2", "acme/b", "")
	require.NoError(t, db.Archive(context.Background(), "p2", 1))
	syncer := &blockingSyncer{}
	svc := NewPipelineService(syncer, &stubIndexer{}, db, db, time.Minute)

	require.NoError(t, svc.SyncAll(context.Background()))
	require.Equal(t, int32(1), syncer.calls.Load())
}

func TestSyncForUserRequiresMembership(t *testing.T) {
	db := newFakeProjectDB()
	svc := NewPipelineService(&blockingSyncer{}, &stubIndexer{}, db, db, time.Minute)
	_, err := svc.SyncForUser(context.Background(), "stranger", "p1")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestPipelineWaitBlocksUntilRunsFinish(t *testing.T) {
	syncer := &blockingSyncer{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewPipelineService(syncer, &stubIndexer{}, newFakeProjectDB(), newFakeProjectDB(), time.Minute)
	require.NoError(t, svc.Wait(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sync(context.Background(), "p1")
		done <- err
	}()
	<-syncer.started

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, svc.Wait(short), context.DeadlineExceeded)

	waited := make(chan error, 1)
	go func() { waited <- svc.Wait(context.Background()) }()
	close(syncer.release)
	require.NoError(t, <-done)
	require.NoError(t, <-waited)
}
