package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type staleCodeCleaner interface {
	CleanupStale(ctx context.Context) (int64, error)
}

type JoinCodeCleanupJob struct {
	team staleCodeCleaner
}

func NewJoinCodeCleanupJob(team staleCodeCleaner) *JoinCodeCleanupJob {
	return &JoinCodeCleanupJob{team: team}
}

func (j *JoinCodeCleanupJob) Name() string {
	return "join_code_cleanup"
}

func (j *JoinCodeCleanupJob) Run(ctx context.Context) error {
	if j.team == nil {
		return nil
	}
	removed, err := j.team.CleanupStale(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("join codes cleaned", zap.Int64("removed", removed))
	return nil
}
