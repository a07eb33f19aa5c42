package job

import (
	"context"
)

type commitSyncer interface {
	SyncAll(ctx context.Context) error
}

// CommitSyncJob polls every active project for new commits.
type CommitSyncJob struct {
	pipeline commitSyncer
}

func NewCommitSyncJob(pipeline commitSyncer) *CommitSyncJob {
	return &CommitSyncJob{pipeline: pipeline}
}

func (j *CommitSyncJob) Name() string {
	return "commit_sync"
}

func (j *CommitSyncJob) Run(ctx context.Context) error {
	if j.pipeline == nil {
		return nil
	}
	return j.pipeline.SyncAll(ctx)
}
