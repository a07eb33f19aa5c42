package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

const TopicProjectCreated = "project.created"

type ProjectCreated struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
}

// Bus is the in-process publish/subscribe channel between the HTTP layer and
// background ingestion.
type Bus struct {
	pubsub *gochannel.GoChannel
}

func NewBus(buffer int, logger *zap.Logger) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: int64(buffer)}, NewZapAdapter(logger)),
	}
}

func (b *Bus) PublishProjectCreated(ctx context.Context, projectID, userID string) error {
	payload, err := json.Marshal(ProjectCreated{ProjectID: projectID, UserID: userID})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(TopicProjectCreated, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicProjectCreated, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
