package vcs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, pageSize int) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGithubClient(GithubConfig{BaseURL: srv.URL, Token: "default-token", CommitPageSize: pageSize})
}

func TestListCommitsSortsAndCaps(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var items []map[string]interface{}
	for i := 0; i < 5; i++ {
		items = append(items, map[string]interface{}{
			"sha": string(rune('a' + i)),
			"commit": map[string]interface{}{
				"message": "msg",
				"author": map[string]interface{}{
					"name": "dev",
					"date": base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
				},
			},
			"author": map[string]interface{}{"avatar_url": "https://avatar"},
		})
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/commits", r.URL.Path)
		require.Equal(t, "main", r.URL.Query().Get("sha"))
		require.Equal(t, "Bearer default-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(items)
	}, 3)

	commits, err := client.ListCommits(context.Background(), RepoRef{Owner: "acme", Name: "widgets"}, "", "main")
	require.NoError(t, err)
	require.Len(t, commits, 3)
	require.Equal(t, "e", commits[0].Hash)
	require.Equal(t, "d", commits[1].Hash)
	require.Equal(t, "c", commits[2].Hash)
	require.Equal(t, "https://avatar", commits[0].AuthorAvatar)
}

func TestFetchDiffMapsStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/commits/ok":
			require.Equal(t, acceptDiff, r.Header.Get("Accept"))
			require.Equal(t, "Bearer per-project", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte("diff --git a/x b/x"))
		case "/repos/acme/widgets/commits/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}, 15)
	ref := RepoRef{Owner: "acme", Name: "widgets"}

	diff, err := client.FetchDiff(context.Background(), ref, "per-project", "ok")
	require.NoError(t, err)
	require.Equal(t, "diff --git a/x b/x", diff)

	_, err = client.FetchDiff(context.Background(), ref, "per-project", "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = client.FetchDiff(context.Background(), ref, "per-project", "broken")
	require.ErrorIs(t, err, appErr.ErrProviderUnavailable)
}

func TestListFileTreeResolvesDefaultBranch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets":
			_, _ = w.Write([]byte(`{"default_branch":"trunk"}`))
		case "/repos/acme/widgets/git/trees/trunk":
			require.Equal(t, "1", r.URL.Query().Get("recursive"))
			_, _ = w.Write([]byte(`{"tree":[
				{"path":"src","type":"tree","sha":"1"},
				{"path":"src/main.go","type":"blob","size":120,"sha":"2"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, 15)

	entries, err := client.ListFileTree(context.Background(), RepoRef{Owner: "acme", Name: "widgets"}, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.False(t, entries[0].IsFile())
	require.True(t, entries[1].IsFile())
	require.Equal(t, int64(120), entries[1].Size)
}

func TestFetchFileEscapesPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/acme/widgets/contents/docs/read me.md", r.URL.Path)
		require.Equal(t, "main", r.URL.Query().Get("ref"))
		require.Equal(t, acceptRaw, r.Header.Get("Accept"))
		_, _ = w.Write([]byte("# hello"))
	}, 15)
	content, err := client.FetchFile(context.Background(), RepoRef{Owner: "acme", Name: "widgets"}, "", "main", "docs/read me.md")
	require.NoError(t, err)
	require.Equal(t, "# hello", content)
}
