package filestore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/repomind/internal/config"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, SaveBytes(ctx, store, "diffs/p1/abc.diff", []byte("diff --git")))

	rc, err := store.Open(ctx, "diffs/p1/abc.diff")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "diff --git", string(data))
}

func TestCleanKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "../etc/passwd", "a\\b"} {
		_, err := cleanKey(key)
		require.Error(t, err, key)
	}
	cleaned, err := cleanKey("/reports//p1/./run.json")
	require.NoError(t, err)
	require.Equal(t, "reports/p1/run.json", cleaned)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestLocalStoreMissingKey(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	_, err = ReadBytes(context.Background(), store, "diffs/p1/none.diff")
	require.ErrorIs(t, err, ErrNotExist)
}
