package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/model"
)

// QueryEmbedder embeds retrieval questions.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) model.Embedding
}

// WrapLruCache caches successful question embeddings so repeated questions do
// not wait on the model pacer. Failed and skipped results are never cached.
func WrapLruCache(e QueryEmbedder, modelName string, size int, ttl time.Duration) QueryEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:      e,
		modelName: modelName,
		cache:     expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next      QueryEmbedder
	modelName string
	cache     *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) EmbedQuery(ctx context.Context, text string) model.Embedding {
	key := buildCacheKey(l.modelName, text)
	if cached, ok := l.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("query embedding cache hit")
		return model.Embedded(cloneEmbedding(cached))
	}
	res := l.next.EmbedQuery(ctx, text)
	if res.OK() {
		l.cache.Add(key, cloneEmbedding(res.Vector))
	} else {
		logutil.GetLogger(ctx).Debug("query embedding not cached", zap.String("state", string(res.State)))
	}
	return res
}

func buildCacheKey(modelName, text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(modelName + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
