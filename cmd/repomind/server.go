package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/event"
	"github.com/xxxsen/repomind/internal/handler"
	"github.com/xxxsen/repomind/internal/job"
	"github.com/xxxsen/repomind/internal/middleware"
	"github.com/xxxsen/repomind/internal/schedule"
)

const httpShutdownTimeout = 15 * time.Second

func runServer(a *app) error {
	cfg := a.cfg
	logger := logutil.GetLogger(context.Background())
	logger.Info("ai pacing enabled",
		zap.String("provider", cfg.AI.Provider),
		zap.Int("pace_interval_ms", cfg.AI.PaceIntervalMS),
		zap.Int("fallbacks", len(cfg.AI.Fallbacks)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := event.NewProjectCreatedConsumer(a.bus, a.pipeline)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start project consumer: %w", err)
	}

	scheduler := schedule.NewCronScheduler(schedule.WithJobTimeout(time.Duration(cfg.Indexer.RunTimeoutMinutes) * time.Minute))
	jobs := []struct {
		job  schedule.Job
		spec string
	}{
		{job.NewCommitSyncJob(a.pipeline), cfg.Schedule.CommitSync},
		{job.NewReembedFailedJob(a.index, cfg.Schedule.ReembedBatch), cfg.Schedule.ReembedFailed},
		{job.NewJoinCodeCleanupJob(a.team), cfg.Schedule.JoinCodeCleanup},
	}
	for _, item := range jobs {
		if err := scheduler.AddJob(item.job, item.spec); err != nil {
			return fmt.Errorf("schedule %s: %w", item.job.Name(), err)
		}
	}
	scheduler.Start(ctx)
	for _, item := range jobs {
		if next, ok := scheduler.Next(item.job.Name()); ok {
			logger.Info("next job run", zap.String("job", item.job.Name()), zap.Time("at", next))
		}
	}

	deps := handler.RouterDeps{
		Projects:      handler.NewProjectHandler(a.projects, a.pipeline),
		Commits:       handler.NewCommitHandler(a.commits),
		Credits:       handler.NewCreditHandler(a.credits),
		Questions:     handler.NewQuestionHandler(a.questions),
		Team:          handler.NewTeamHandler(a.team),
		Billing:       handler.NewBillingHandler(a.credits),
		JWTSecret:     []byte(cfg.JWTSecret),
		BillingSecret: cfg.Billing.WebhookSecret,
		JoinRateLimit: time.Duration(cfg.Team.JoinRateLimitSec) * time.Second,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		scheduler.Stop()
		return fmt.Errorf("init web engine: %w", err)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	scheduler.Stop()

	// pipeline runs are detached from request and signal contexts; let in-flight
	// ones finish before the db closes
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), time.Duration(cfg.Indexer.RunTimeoutMinutes)*time.Minute)
	defer cancelDrain()
	if err := a.pipeline.Wait(drainCtx); err != nil {
		logger.Warn("pipeline runs still in flight at exit", zap.Error(err))
		return nil
	}
	consumer.Wait()
	logger.Info("server stopped")
	return nil
}
