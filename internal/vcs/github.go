package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

const (
	defaultGithubBaseURL = "https://api.github.com"
	githubAPIVersion     = "2022-11-28"
	acceptJSON           = "application/vnd.github+json"
	acceptDiff           = "application/vnd.github.v3.diff"
	acceptRaw            = "application/vnd.github.raw"
	maxErrorBody         = 512
)

type GithubConfig struct {
	BaseURL        string
	Token          string
	Timeout        time.Duration
	CommitPageSize int
}

type githubClient struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
}

func NewGithubClient(cfg GithubConfig) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGithubBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.CommitPageSize
	if pageSize <= 0 {
		pageSize = 15
	}
	return &githubClient{
		baseURL:  baseURL,
		token:    cfg.Token,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
	}
}

type githubRepoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

func (g *githubClient) DefaultBranch(ctx context.Context, ref RepoRef, token string) (string, error) {
	var out githubRepoResponse
	if err := g.getJSON(ctx, g.repoPath(ref), token, nil, &out); err != nil {
		return "", err
	}
	if out.DefaultBranch == "" {
		return "main", nil
	}
	return out.DefaultBranch, nil
}

type githubTreeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
		SHA  string `json:"sha"`
	} `json:"tree"`
	Truncated bool `json:"truncated"`
}

func (g *githubClient) ListFileTree(ctx context.Context, ref RepoRef, token, branch string) ([]TreeEntry, error) {
	if branch == "" {
		b, err := g.DefaultBranch(ctx, ref, token)
		if err != nil {
			return nil, err
		}
		branch = b
	}
	query := url.Values{}
	query.Set("recursive", "1")
	var out githubTreeResponse
	if err := g.getJSON(ctx, g.repoPath(ref)+"/git/trees/"+url.PathEscape(branch), token, query, &out); err != nil {
		return nil, err
	}
	if out.Truncated {
		logutil.GetLogger(ctx).Warn("github tree truncated", zap.String("repo", ref.String()), zap.Int("entries", len(out.Tree)))
	}
	entries := make([]TreeEntry, 0, len(out.Tree))
	for _, item := range out.Tree {
		entries = append(entries, TreeEntry{Path: item.Path, Type: item.Type, Size: item.Size, SHA: item.SHA})
	}
	return entries, nil
}

type githubCommitItem struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
}

// ListCommits returns at most CommitPageSize commits, newest author date first.
func (g *githubClient) ListCommits(ctx context.Context, ref RepoRef, token, branch string) ([]CommitMeta, error) {
	query := url.Values{}
	if branch != "" {
		query.Set("sha", branch)
	}
	query.Set("per_page", strconv.Itoa(g.pageSize))
	var items []githubCommitItem
	if err := g.getJSON(ctx, g.repoPath(ref)+"/commits", token, query, &items); err != nil {
		return nil, err
	}
	commits := make([]CommitMeta, 0, len(items))
	for _, item := range items {
		meta := CommitMeta{
			Hash:       item.SHA,
			Message:    item.Commit.Message,
			AuthorName: item.Commit.Author.Name,
			Date:       item.Commit.Author.Date,
		}
		if item.Author != nil {
			meta.AuthorAvatar = item.Author.AvatarURL
		}
		commits = append(commits, meta)
	}
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].Date.After(commits[j].Date)
	})
	if len(commits) > g.pageSize {
		commits = commits[:g.pageSize]
	}
	return commits, nil
}

func (g *githubClient) FetchDiff(ctx context.Context, ref RepoRef, token, hash string) (string, error) {
	return g.getText(ctx, g.repoPath(ref)+"/commits/"+url.PathEscape(hash), token, nil, acceptDiff)
}

func (g *githubClient) FetchFile(ctx context.Context, ref RepoRef, token, branch, path string) (string, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	query := url.Values{}
	if branch != "" {
		query.Set("ref", branch)
	}
	return g.getText(ctx, g.repoPath(ref)+"/contents/"+strings.Join(segments, "/"), token, query, acceptRaw)
}

func (g *githubClient) repoPath(ref RepoRef) string {
	return "/repos/" + url.PathEscape(ref.Owner) + "/" + url.PathEscape(ref.Name)
}

func (g *githubClient) getJSON(ctx context.Context, path, token string, query url.Values, dst interface{}) error {
	resp, err := g.do(ctx, path, token, query, acceptJSON)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", appErr.ErrProviderUnavailable, path, err)
	}
	return nil
}

func (g *githubClient) getText(ctx context.Context, path, token string, query url.Values, accept string) (string, error) {
	resp, err := g.do(ctx, path, token, query, accept)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", appErr.ErrProviderUnavailable, path, err)
	}
	return string(body), nil
}

// do performs the request and maps failures: 404 to ErrNotFound, anything
// else non-2xx or a transport error to ErrProviderUnavailable.
func (g *githubClient) do(ctx context.Context, path, token string, query url.Values, accept string) (*http.Response, error) {
	endpoint := g.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("User-Agent", "repomind")
	if token == "" {
		token = g.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", appErr.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", appErr.ErrNotFound, path)
	}
	logutil.GetLogger(ctx).Warn("github request failed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return nil, fmt.Errorf("%w: %s: %s: %s", appErr.ErrProviderUnavailable, path, resp.Status, strings.TrimSpace(string(body)))
}
