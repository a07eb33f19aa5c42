package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/model"
)

type countingEmbedder struct {
	calls  int
	result model.Embedding
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) model.Embedding {
	c.calls++
	return c.result
}

func TestLruCacheHitsOnNormalizedQuestion(t *testing.T) {
	next := &countingEmbedder{result: model.Embedded([]float32{1, 2, 3})}
	e := WrapLruCache(next, "m", 16, time.Minute)

	first := e.EmbedQuery(context.Background(), "How does auth work?")
	second := e.EmbedQuery(context.Background(), "  how does   AUTH work? ")
	require.True(t, first.OK())
	require.Equal(t, first.Vector, second.Vector)
	require.Equal(t, 1, next.calls)
}

func TestLruCacheSkipsFailures(t *testing.T) {
	next := &countingEmbedder{result: model.FailedEmbedding()}
	e := WrapLruCache(next, "m", 16, time.Minute)

	e.EmbedQuery(context.Background(), "q")
	e.EmbedQuery(context.Background(), "q")
	require.Equal(t, 2, next.calls)
}
