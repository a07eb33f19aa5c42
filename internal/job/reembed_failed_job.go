package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type failedReembedder interface {
	ReembedFailed(ctx context.Context, limit int) (int, error)
}

type ReembedFailedJob struct {
	index failedReembedder
	batch int
}

func NewReembedFailedJob(index failedReembedder, batch int) *ReembedFailedJob {
	return &ReembedFailedJob{index: index, batch: batch}
}

func (j *ReembedFailedJob) Name() string {
	return "reembed_failed"
}

func (j *ReembedFailedJob) Run(ctx context.Context) error {
	if j.index == nil {
		return nil
	}
	batch := j.batch
	if batch <= 0 {
		batch = 50
	}
	fixed, err := j.index.ReembedFailed(ctx, batch)
	if fixed > 0 {
		logutil.GetLogger(ctx).Info("re-embedded failed files", zap.Int("count", fixed))
	}
	return err
}
