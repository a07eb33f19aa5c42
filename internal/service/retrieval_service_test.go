package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

func unitWithSimilarity(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func TestRetrieveThresholdAndOrder(t *testing.T) {
	files := &fakeFileStore{rows: []model.FileEmbedding{
		{ProjectID: "p1", FileName: "low.go", EmbeddingState: model.EmbeddingEmbedded, Embedding: unitWithSimilarity(0.3)},
		{ProjectID: "p1", FileName: "high.go", EmbeddingState: model.EmbeddingEmbedded, Embedding: unitWithSimilarity(0.9)},
		{ProjectID: "p1", FileName: "mid.go", EmbeddingState: model.EmbeddingEmbedded, Embedding: unitWithSimilarity(0.6)},
		{ProjectID: "p2", FileName: "other.go", EmbeddingState: model.EmbeddingEmbedded, Embedding: unitWithSimilarity(1)},
	}}
	gen := &fakeAI{embed: func(text string) model.Embedding { return model.Embedded([]float32{1, 0}) }}
	svc := NewRetrievalService(files, gen, 10, 0.5)

	got, err := svc.Retrieve(context.Background(), "where is auth?", "p1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "high.go", got[0].FileName)
	require.InDelta(t, 0.9, got[0].Similarity, 1e-6)
	require.Equal(t, "mid.go", got[1].FileName)
	require.InDelta(t, 0.6, got[1].Similarity, 1e-6)
}

func TestRetrieveCutsToTopK(t *testing.T) {
	files := &fakeFileStore{}
	for _, name := range []string{"a", "b", "c"} {
		files.rows = append(files.rows, model.FileEmbedding{ProjectID: "p1", FileName: name, EmbeddingState: model.EmbeddingEmbedded, Embedding: []float32{1, 0}})
	}
	gen := &fakeAI{embed: func(text string) model.Embedding { return model.Embedded([]float32{1, 0}) }}
	svc := NewRetrievalService(files, gen, 10, 0.5)

	got, err := svc.Retrieve(context.Background(), "q", "p1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestRetrieveUnembeddableQuestion(t *testing.T) {
	gen := &fakeAI{embed: func(text string) model.Embedding { return model.FailedEmbedding() }}
	svc := NewRetrievalService(&fakeFileStore{}, gen, 10, 0.5)
	_, err := svc.Retrieve(context.Background(), "q", "p1", 0)
	require.ErrorIs(t, err, appErr.ErrEmbeddingUnavailable)
}

func TestCosineSimilarityEdgeCases(t *testing.T) {
	require.Zero(t, cosineSimilarity(nil, nil))
	require.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1}))
	require.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	require.InDelta(t, -1, cosineSimilarity([]float32{1, 0}, []float32{-2, 0}), 1e-9)
}
