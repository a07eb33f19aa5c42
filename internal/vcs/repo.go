package vcs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

type TreeEntry struct {
	Path string
	Type string
	Size int64
	SHA  string
}

func (e TreeEntry) IsFile() bool {
	return e.Type == "blob"
}

type CommitMeta struct {
	Hash         string
	Message      string
	AuthorName   string
	AuthorAvatar string
	Date         time.Time
}

// Client reads repository content from a hosting provider. token overrides the
// client-wide credential when non-empty.
type Client interface {
	DefaultBranch(ctx context.Context, ref RepoRef, token string) (string, error)
	ListFileTree(ctx context.Context, ref RepoRef, token, branch string) ([]TreeEntry, error)
	ListCommits(ctx context.Context, ref RepoRef, token, branch string) ([]CommitMeta, error)
	FetchDiff(ctx context.Context, ref RepoRef, token, hash string) (string, error)
	FetchFile(ctx context.Context, ref RepoRef, token, branch, path string) (string, error)
}

// ResolveRepo extracts owner and name from a repository URL. Both
// "https://github.com/o/r(.git)" and bare "o/r" forms are accepted; only the
// last two path segments are used.
func ResolveRepo(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return RepoRef{}, fmt.Errorf("%w: %v", appErr.ErrInvalidRepoURL, err)
		}
		s = u.Path
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")
	var parts []string
	for _, p := range strings.Split(s, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepoRef{}, fmt.Errorf("%w: %q", appErr.ErrInvalidRepoURL, raw)
	}
	return RepoRef{Owner: parts[len(parts)-2], Name: parts[len(parts)-1]}, nil
}
