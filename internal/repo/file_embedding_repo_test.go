package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/repo"
	"github.com/xxxsen/repomind/test/testutil"
)

func vector(first float32) []float32 {
	v := make([]float32, 768)
	v[0] = first
	return v
}

func TestListEmbeddedTakesLatestPerFile(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	files := repo.NewFileEmbeddingRepo(db)
	projectID := testutil.NewID()

	rows := []model.FileEmbedding{
		{ID: testutil.NewID(), ProjectID: projectID, FileName: "a.go", Summary: "old", EmbeddingState: model.EmbeddingEmbedded, Embedding: vector(1), Ctime: 1, Mtime: 1},
		{ID: testutil.NewID(), ProjectID: projectID, FileName: "a.go", Summary: "new", EmbeddingState: model.EmbeddingEmbedded, Embedding: vector(2), Ctime: 2, Mtime: 2},
		{ID: testutil.NewID(), ProjectID: projectID, FileName: "b.go", Summary: "broken", EmbeddingState: model.EmbeddingFailed, Ctime: 1, Mtime: 1},
	}
	for i := range rows {
		require.NoError(t, files.Save(ctx, &rows[i]))
	}

	list, err := files.ListEmbedded(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "new", list[0].Summary)
	require.InDelta(t, 2, list[0].Embedding[0], 1e-6)

	failed, err := files.ListFailed(ctx, 100)
	require.NoError(t, err)
	found := false
	for _, item := range failed {
		if item.ID == rows[2].ID {
			found = true
			require.Nil(t, item.Embedding)
		}
	}
	require.True(t, found)

	require.NoError(t, files.UpdateEmbedding(ctx, rows[2].ID, model.Embedded(vector(3)), 5))
	list, err = files.ListEmbedded(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}
