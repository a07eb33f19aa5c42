package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// PipelineRunner ingests a freshly created project.
type PipelineRunner interface {
	Run(ctx context.Context, projectID string) error
}

type ProjectCreatedConsumer struct {
	bus    *Bus
	runner PipelineRunner
	wg     sync.WaitGroup
}

func NewProjectCreatedConsumer(bus *Bus, runner PipelineRunner) *ProjectCreatedConsumer {
	return &ProjectCreatedConsumer{bus: bus, runner: runner}
}

// Start subscribes and handles messages until ctx is done or the bus closes.
// Each project runs in its own goroutine; Wait blocks until all have returned.
func (c *ProjectCreatedConsumer) Start(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx, TopicProjectCreated)
	if err != nil {
		return err
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for msg := range messages {
			c.handle(ctx, msg)
		}
	}()
	return nil
}

func (c *ProjectCreatedConsumer) handle(ctx context.Context, msg *message.Message) {
	logger := logutil.GetLogger(ctx).With(zap.String("message_id", msg.UUID))
	var payload ProjectCreated
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.ProjectID == "" {
		logger.Error("drop malformed project event", zap.Error(err))
		msg.Ack()
		return
	}
	msg.Ack()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Info("start project pipeline", zap.String("project_id", payload.ProjectID))
		if err := c.runner.Run(ctx, payload.ProjectID); err != nil {
			logger.Error("project pipeline finished with errors", zap.String("project_id", payload.ProjectID), zap.Error(err))
			return
		}
		logger.Info("project pipeline finished", zap.String("project_id", payload.ProjectID))
	}()
}

func (c *ProjectCreatedConsumer) Wait() {
	c.wg.Wait()
}
