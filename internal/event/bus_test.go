package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingRunner struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (r *recordingRunner) Run(ctx context.Context, projectID string) error {
	r.mu.Lock()
	r.seen = append(r.seen, projectID)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func TestProjectCreatedReachesRunner(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	runner := &recordingRunner{done: make(chan struct{}, 2)}
	consumer := NewProjectCreatedConsumer(bus, runner)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Start(ctx))

	require.NoError(t, bus.PublishProjectCreated(ctx, "p1", "u1"))
	require.NoError(t, bus.PublishProjectCreated(ctx, "p2", "u1"))
	for i := 0; i < 2; i++ {
		select {
		case <-runner.done:
		case <-time.After(5 * time.Second):
			t.Fatal("runner not called")
		}
	}
	require.NoError(t, bus.Close())
	consumer.Wait()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.ElementsMatch(t, []string{"p1", "p2"}, runner.seen)
}

func TestPublishWithoutSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(1, nil)
	defer bus.Close()
	require.NoError(t, bus.PublishProjectCreated(context.Background(), "p1", "u1"))
}
