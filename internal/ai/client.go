package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type ClientConfig struct {
	Cooldown      time.Duration
	Timeout       time.Duration
	MaxInputChars int
	Dimension     int
}

// Client is the single entry point for summaries and embeddings. Every
// summarize/embed call waits on the shared pacer; a throttled call cools down
// once and is retried exactly once.
type Client struct {
	summarizer IGenerator
	answerer   IGenerator
	embedder   IEmbedder
	pacer      Pacer
	cfg        ClientConfig
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewClient(summarizer, answerer IGenerator, embedder IEmbedder, pacer Pacer, cfg ClientConfig) *Client {
	if pacer == nil {
		pacer = NopPacer{}
	}
	if answerer == nil {
		answerer = summarizer
	}
	return &Client{
		summarizer: summarizer,
		answerer:   answerer,
		embedder:   embedder,
		pacer:      pacer,
		cfg:        cfg,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SummarizeDiff returns a bullet summary of a unified diff. On failure it
// returns "" and the cause; callers persist the empty summary.
func (c *Client) SummarizeDiff(ctx context.Context, diff string) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", nil
	}
	prompt := fmt.Sprintf(diffSummaryPrompt, TruncateRunes(diff, c.cfg.MaxInputChars))
	return c.summarize(ctx, "summarize_diff", prompt)
}

// SummarizeFile explains a source file for onboarding. Content is expected to
// be truncated by the caller.
func (c *Client) SummarizeFile(ctx context.Context, path, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty file content")
	}
	prompt := fmt.Sprintf(fileSummaryPrompt, path, TruncateRunes(content, c.cfg.MaxInputChars))
	return c.summarize(ctx, "summarize_file", prompt)
}

func (c *Client) summarize(ctx context.Context, op string, prompt string) (string, error) {
	if c.summarizer == nil {
		return "", ErrUnavailable
	}
	var out string
	err := c.paced(ctx, op, func(ctx context.Context) error {
		res, err := c.summarizer.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		res = strings.TrimSpace(res)
		if res == "" {
			return fmt.Errorf("empty ai response")
		}
		out = res
		return nil
	})
	if err != nil {
		logutil.GetLogger(ctx).Warn("ai summarize failed", zap.String("op", op), zap.Error(err))
		return "", err
	}
	return out, nil
}

// Embed embeds document text. Blank text is Skipped without a provider call;
// any failure, including a vector of the wrong dimension, is Failed.
func (c *Client) Embed(ctx context.Context, text string) model.Embedding {
	return c.embed(ctx, text, TaskRetrievalDocument)
}

func (c *Client) EmbedQuery(ctx context.Context, text string) model.Embedding {
	return c.embed(ctx, text, TaskRetrievalQuery)
}

func (c *Client) embed(ctx context.Context, text string, taskType string) model.Embedding {
	if strings.TrimSpace(text) == "" {
		return model.SkippedEmbedding()
	}
	if c.embedder == nil {
		return model.FailedEmbedding()
	}
	var vec []float32
	err := c.paced(ctx, "embed", func(ctx context.Context) error {
		res, err := c.embedder.Embed(ctx, TruncateRunes(text, c.cfg.MaxInputChars), taskType)
		if err != nil {
			return err
		}
		vec = res
		return nil
	})
	logger := logutil.GetLogger(ctx)
	if err != nil {
		logger.Warn("ai embed failed", zap.String("task_type", taskType), zap.Error(err))
		return model.FailedEmbedding()
	}
	if len(vec) == 0 || (c.cfg.Dimension > 0 && len(vec) != c.cfg.Dimension) {
		logger.Warn("ai embed dimension mismatch", zap.Int("got", len(vec)), zap.Int("want", c.cfg.Dimension))
		return model.FailedEmbedding()
	}
	return model.Embedded(vec)
}

// Answer writes the final answer for a question from retrieved files. It does
// not wait on the pacer and returns provider errors unchanged.
func (c *Client) Answer(ctx context.Context, question string, refs []model.FileReference) (string, error) {
	if c.answerer == nil {
		return "", ErrUnavailable
	}
	var sb strings.Builder
	for _, ref := range refs {
		fmt.Fprintf(&sb, "source: %s\ncode content: %s\nsummary of file: %s\n\n", ref.FileName, ref.SourceCode, ref.Summary)
	}
	prompt := fmt.Sprintf(answerPrompt, TruncateRunes(sb.String(), c.cfg.MaxInputChars), question)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.answerer.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res), nil
}

func (c *Client) paced(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := c.withTimeout(ctx)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt > 0 || !errors.Is(err, appErr.ErrRateLimited) {
			return err
		}
		logutil.GetLogger(ctx).Warn("ai rate limited, cooling down",
			zap.String("op", op),
			zap.Duration("cooldown", c.cfg.Cooldown),
		)
		if err := c.sleep(ctx, c.cfg.Cooldown); err != nil {
			return err
		}
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Client) EmbeddingModelName() string {
	if c.embedder == nil {
		return ""
	}
	return c.embedder.ModelName()
}

// TruncateRunes cuts s to at most limit runes. limit <= 0 disables the cut.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
