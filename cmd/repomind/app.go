package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/ai"
	"github.com/xxxsen/repomind/internal/config"
	"github.com/xxxsen/repomind/internal/db"
	"github.com/xxxsen/repomind/internal/embedcache"
	"github.com/xxxsen/repomind/internal/event"
	"github.com/xxxsen/repomind/internal/filestore"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/repo"
	"github.com/xxxsen/repomind/internal/service"
	"github.com/xxxsen/repomind/internal/vcs"
)

// app holds everything the subcommands share. One pacer is created here and
// handed to the single AI client, so every summarize/embed call in the
// process queues on it.
type app struct {
	cfg       *config.Config
	db        *sql.DB
	bus       *event.Bus
	projects  *service.ProjectService
	commits   *service.CommitService
	index     *service.IndexService
	credits   *service.CreditService
	questions *service.QuestionService
	team      *service.TeamService
	pipeline  *service.PipelineService
}

func buildApp(cfg *config.Config) (*app, error) {
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	aiClient, err := buildAIClient(cfg.AI)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	projectRepo := repo.NewProjectRepo(conn)
	memberRepo := repo.NewMemberRepo(conn)
	commitRepo := repo.NewCommitRepo(conn)
	fileRepo := repo.NewFileEmbeddingRepo(conn)
	creditRepo := repo.NewCreditRepo(conn)
	joinCodeRepo := repo.NewJoinCodeRepo(conn)
	questionRepo := repo.NewQuestionRepo(conn)

	box := secret.NewBox(cfg.TokenSecret)
	github := vcs.NewGithubClient(vcs.GithubConfig{
		BaseURL:        cfg.Github.BaseURL,
		Token:          cfg.Github.Token,
		Timeout:        time.Duration(cfg.Github.Timeout) * time.Second,
		CommitPageSize: cfg.Github.CommitPageSize,
	})
	filter := service.NewIndexFilter(cfg.Indexer)
	bus := event.NewBus(cfg.Indexer.EventBuffer, logutil.GetLogger(context.Background()))

	credits := service.NewCreditService(github, filter, creditRepo)
	commits := service.NewCommitService(projectRepo, memberRepo, box, commitRepo, github, aiClient, store, cfg.Indexer.CommitWorkers)
	index := service.NewIndexService(projectRepo, box, fileRepo, github, aiClient, filter, store, cfg.Indexer.Workers, cfg.Indexer.MaxContentChars)
	queryEmbedder := embedcache.WrapLruCache(aiClient, aiClient.EmbeddingModelName(), cfg.AI.EmbedCacheSize, time.Duration(cfg.AI.EmbedCacheTTL)*time.Second)
	retrieval := service.NewRetrievalService(fileRepo, queryEmbedder, cfg.Retrieval.TopK, cfg.Retrieval.Threshold())

	return &app{
		cfg:       cfg,
		db:        conn,
		bus:       bus,
		projects:  service.NewProjectService(projectRepo, memberRepo, credits, box, bus),
		commits:   commits,
		index:     index,
		credits:   credits,
		questions: service.NewQuestionService(projectRepo, memberRepo, retrieval, aiClient, questionRepo),
		team:      service.NewTeamService(projectRepo, memberRepo, joinCodeRepo, time.Duration(cfg.Team.JoinCodeTTLHours)*time.Hour),
		pipeline:  service.NewPipelineService(commits, index, projectRepo, memberRepo, time.Duration(cfg.Indexer.RunTimeoutMinutes)*time.Minute),
	}, nil
}

func (a *app) Close() {
	if err := a.bus.Close(); err != nil {
		logutil.GetLogger(context.Background()).Warn("close event bus", zap.Error(err))
	}
	_ = a.db.Close()
}

func buildAIClient(cfg config.AIConfig) (*ai.Client, error) {
	orDefault := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	entries := []config.AIProviderConfig{{
		Provider:     cfg.Provider,
		Data:         cfg.Data,
		SummaryModel: cfg.SummaryModel,
		AnswerModel:  cfg.AnswerModel,
		EmbedModel:   cfg.EmbedModel,
	}}
	for _, fb := range cfg.Fallbacks {
		fb.SummaryModel = orDefault(fb.SummaryModel, cfg.SummaryModel)
		fb.AnswerModel = orDefault(fb.AnswerModel, cfg.AnswerModel)
		fb.EmbedModel = orDefault(fb.EmbedModel, cfg.EmbedModel)
		entries = append(entries, fb)
	}
	var summarizers, answerers []ai.GeneratorEntry
	var embedders []ai.EmbedderEntry
	for _, entry := range entries {
		provider, err := ai.NewProvider(entry.Provider, entry.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", entry.Provider, err)
		}
		summarizers = append(summarizers, ai.GeneratorEntry{Name: provider.Name(), Generator: ai.NewGenerator(provider, entry.SummaryModel)})
		answerers = append(answerers, ai.GeneratorEntry{Name: provider.Name(), Generator: ai.NewGenerator(provider, entry.AnswerModel)})
		embedders = append(embedders, ai.EmbedderEntry{Name: provider.Name(), Embedder: ai.NewEmbedder(provider, entry.EmbedModel)})
	}
	return ai.NewClient(
		ai.NewGroupGenerator(summarizers),
		ai.NewGroupGenerator(answerers),
		ai.NewGroupEmbedder(embedders),
		ai.NewRatePacer(time.Duration(cfg.PaceIntervalMS)*time.Millisecond),
		ai.ClientConfig{
			Cooldown:      time.Duration(cfg.CooldownSeconds) * time.Second,
			Timeout:       time.Duration(cfg.Timeout) * time.Second,
			MaxInputChars: cfg.MaxInputChars,
			Dimension:     cfg.EmbeddingDim,
		},
	), nil
}
