package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/repomind/internal/filestore"
	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
	"github.com/xxxsen/repomind/internal/vcs"
)

type CommitService struct {
	source  repoSource
	access  access
	commits commitStore
	vcs     vcs.Client
	ai      diffSummarizer
	store   filestore.Store
	workers int
}

func NewCommitService(projects projectStore, members memberStore, box *secret.Box, commits commitStore, client vcs.Client, ai diffSummarizer, store filestore.Store, workers int) *CommitService {
	if workers <= 0 {
		workers = 1
	}
	return &CommitService{
		source:  repoSource{projects: projects, box: box},
		access:  access{projects: projects, members: members},
		commits: commits,
		vcs:     client,
		ai:      ai,
		store:   store,
		workers: workers,
	}
}

// Sync records the newest commits of the project's default branch that are not
// stored yet. A commit whose diff cannot be fetched or summarized is stored with
// an empty summary; running Sync twice never duplicates a hash.
func (s *CommitService) Sync(ctx context.Context, projectID string) (*model.CommitSyncReport, error) {
	_, ref, token, err := s.source.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}
	branch, err := s.vcs.DefaultBranch(ctx, ref, token)
	if err != nil {
		return nil, fmt.Errorf("default branch: %w", err)
	}
	metas, err := s.vcs.ListCommits(ctx, ref, token, branch)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	report := &model.CommitSyncReport{ProjectID: projectID, Fetched: len(metas)}
	if len(metas) == 0 {
		return report, nil
	}
	hashes := make([]string, 0, len(metas))
	for _, meta := range metas {
		hashes = append(hashes, meta.Hash)
	}
	existing, err := s.commits.ExistingHashes(ctx, projectID, hashes)
	if err != nil {
		return nil, err
	}
	pending := make([]vcs.CommitMeta, 0, len(metas))
	for _, meta := range metas {
		if _, ok := existing[meta.Hash]; ok {
			continue
		}
		existing[meta.Hash] = struct{}{}
		pending = append(pending, meta)
	}
	report.New = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("repo", ref.String()))
	rows := make([]model.Commit, len(pending))
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, meta := range pending {
		g.Go(func() error {
			summary, err := s.summarize(gctx, projectID, ref, token, meta.Hash)
			if err != nil {
				failed.Add(1)
				logger.Warn("commit summary failed", zap.String("commit", meta.Hash), zap.Error(err))
			}
			now := timeutil.NowUnix()
			rows[i] = model.Commit{
				ID:           newID(),
				ProjectID:    projectID,
				CommitHash:   meta.Hash,
				AuthorName:   meta.AuthorName,
				AuthorAvatar: meta.AuthorAvatar,
				Message:      meta.Message,
				CommitTime:   meta.Date.Unix(),
				Summary:      summary,
				Ctime:        now,
				Mtime:        now,
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	inserted, err := s.commits.BulkInsert(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("insert commits: %w", err)
	}
	report.Inserted = int(inserted)
	report.SummaryFailed = int(failed.Load())
	logger.Info("commit sync finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("new", report.New),
		zap.Int("inserted", report.Inserted),
		zap.Int("summary_failed", report.SummaryFailed),
	)
	return report, nil
}

func (s *CommitService) summarize(ctx context.Context, projectID string, ref vcs.RepoRef, token, hash string) (string, error) {
	diff, err := s.vcs.FetchDiff(ctx, ref, token, hash)
	if err != nil {
		return "", fmt.Errorf("fetch diff: %w", err)
	}
	s.archiveDiff(ctx, projectID, hash, diff)
	return s.ai.SummarizeDiff(ctx, diff)
}

func diffKey(projectID, hash string) string {
	return fmt.Sprintf("diffs/%s/%s.diff", projectID, hash)
}

func (s *CommitService) archiveDiff(ctx context.Context, projectID, hash, diff string) {
	if s.store == nil || diff == "" {
		return
	}
	key := diffKey(projectID, hash)
	if err := filestore.SaveBytes(ctx, s.store, key, []byte(diff)); err != nil {
		logutil.GetLogger(ctx).Warn("archive diff failed", zap.String("key", key), zap.Error(err))
	}
}

// Diff returns the raw diff of one commit. The archived copy is served when
// present; otherwise the diff is fetched from the provider and archived.
func (s *CommitService) Diff(ctx context.Context, userID, commitID string) (string, error) {
	commit, err := s.commits.GetByID(ctx, commitID)
	if err != nil {
		return "", err
	}
	if _, err := s.access.member(ctx, commit.ProjectID, userID); err != nil {
		return "", err
	}
	if s.store != nil {
		data, err := filestore.ReadBytes(ctx, s.store, diffKey(commit.ProjectID, commit.CommitHash))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, filestore.ErrNotExist) {
			logutil.GetLogger(ctx).Warn("read archived diff failed", zap.String("commit_id", commitID), zap.Error(err))
		}
	}
	_, ref, token, err := s.source.resolve(ctx, commit.ProjectID)
	if err != nil {
		return "", err
	}
	diff, err := s.vcs.FetchDiff(ctx, ref, token, commit.CommitHash)
	if err != nil {
		return "", fmt.Errorf("fetch diff: %w", err)
	}
	s.archiveDiff(ctx, commit.ProjectID, commit.CommitHash, diff)
	return diff, nil
}

// List is a pure read, newest first.
func (s *CommitService) List(ctx context.Context, userID, projectID string) ([]model.Commit, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.commits.ListByProject(ctx, projectID)
}

// Regenerate re-summarizes one commit. Any failure is returned and the stored
// row is left as it was.
func (s *CommitService) Regenerate(ctx context.Context, userID, commitID string) (*model.Commit, error) {
	commit, err := s.commits.GetByID(ctx, commitID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.member(ctx, commit.ProjectID, userID); err != nil {
		return nil, err
	}
	_, ref, token, err := s.source.resolve(ctx, commit.ProjectID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, commit.ProjectID, ref, token, commit.CommitHash)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	if err := s.commits.UpdateSummary(ctx, commit.ID, summary, now); err != nil {
		return nil, err
	}
	commit.Summary = summary
	commit.Mtime = now
	return commit, nil
}
