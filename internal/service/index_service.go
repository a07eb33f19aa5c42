package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xxxsen/repomind/internal/ai"
	"github.com/xxxsen/repomind/internal/filestore"
	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
	"github.com/xxxsen/repomind/internal/vcs"
)

type IndexService struct {
	source          repoSource
	files           fileEmbeddingStore
	vcs             vcs.Client
	ai              fileSummarizer
	filter          *IndexFilter
	store           filestore.Store
	workers         int
	maxContentChars int
}

func NewIndexService(projects projectStore, box *secret.Box, files fileEmbeddingStore, client vcs.Client, summarizer fileSummarizer, filter *IndexFilter, store filestore.Store, workers, maxContentChars int) *IndexService {
	if workers <= 0 {
		workers = 1
	}
	return &IndexService{
		source:          repoSource{projects: projects, box: box},
		files:           files,
		vcs:             client,
		ai:              summarizer,
		filter:          filter,
		store:           store,
		workers:         workers,
		maxContentChars: maxContentChars,
	}
}

// IndexProject summarizes and embeds every file of the default branch that
// passes the filter. Files fail independently; the run itself only errors
// when the tree cannot be listed.
func (s *IndexService) IndexProject(ctx context.Context, projectID string) (*model.IndexReport, error) {
	_, ref, token, err := s.source.resolve(ctx, projectID)
	if err != nil {
		return nil, err
	}
	report := &model.IndexReport{ProjectID: projectID, StartedAt: timeutil.NowUnix()}
	branch, err := s.vcs.DefaultBranch(ctx, ref, token)
	if err != nil {
		return nil, fmt.Errorf("default branch: %w", err)
	}
	entries, err := s.vcs.ListFileTree(ctx, ref, token, branch)
	if err != nil {
		return nil, fmt.Errorf("list tree: %w", err)
	}
	kept, filtered := s.filter.Split(entries)
	report.Filtered = filtered
	report.Attempted = len(kept)

	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("repo", ref.String()))
	var succeeded, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, entry := range kept {
		g.Go(func() error {
			if err := s.indexFile(gctx, projectID, ref, token, branch, entry.Path); err != nil {
				failed.Add(1)
				logger.Warn("index file failed", zap.String("path", entry.Path), zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
	report.EndedAt = timeutil.NowUnix()
	logger.Info("index run finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("filtered", report.Filtered),
	)
	s.archiveReport(ctx, report)
	return report, ctx.Err()
}

func (s *IndexService) indexFile(ctx context.Context, projectID string, ref vcs.RepoRef, token, branch, path string) error {
	content, err := s.vcs.FetchFile(ctx, ref, token, branch, path)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	content = cleanText(ai.TruncateRunes(content, s.maxContentChars))
	summary, err := s.ai.SummarizeFile(ctx, path, content)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	summary = cleanText(summary)
	emb := s.ai.Embed(ctx, ai.PlainText(summary))
	now := timeutil.NowUnix()
	item := &model.FileEmbedding{
		ID:             newID(),
		ProjectID:      projectID,
		FileName:       path,
		SourceCode:     content,
		Summary:        summary,
		EmbeddingState: emb.State,
		Embedding:      emb.Vector,
		Ctime:          now,
		Mtime:          now,
	}
	if err := s.files.Save(ctx, item); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if !emb.OK() {
		return fmt.Errorf("embedding %s", emb.State)
	}
	return nil
}

// cleanText makes s storable in a postgres TEXT column, which rejects NUL
// bytes and invalid UTF-8.
func cleanText(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, "\uFFFD"), "\x00", "")
}

func (s *IndexService) archiveReport(ctx context.Context, report *model.IndexReport) {
	if s.store == nil {
		return
	}
	key := fmt.Sprintf("reports/%s/index-%d.json", report.ProjectID, report.StartedAt)
	if err := filestore.SaveJSON(ctx, s.store, key, report); err != nil {
		logutil.GetLogger(ctx).Warn("archive index report failed", zap.String("key", key), zap.Error(err))
	}
}

// ReembedFailed retries embedding for stored summaries whose embedding failed.
// It returns how many rows now carry a vector.
func (s *IndexService) ReembedFailed(ctx context.Context, limit int) (int, error) {
	rows, err := s.files.ListFailed(ctx, limit)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		if strings.TrimSpace(row.Summary) == "" {
			continue
		}
		emb := s.ai.Embed(ctx, ai.PlainText(row.Summary))
		if !emb.OK() {
			continue
		}
		if err := s.files.UpdateEmbedding(ctx, row.ID, emb, timeutil.NowUnix()); err != nil {
			logutil.GetLogger(ctx).Warn("update embedding failed", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		fixed++
	}
	return fixed, nil
}
