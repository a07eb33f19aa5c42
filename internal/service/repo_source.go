package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/vcs"
)

// repoSource turns a stored project into what the content fetcher needs.
type repoSource struct {
	projects projectStore
	box      *secret.Box
}

func (s repoSource) resolve(ctx context.Context, projectID string) (*model.Project, vcs.RepoRef, string, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, vcs.RepoRef{}, "", err
	}
	ref, err := vcs.ResolveRepo(project.RepoURL)
	if err != nil {
		return nil, vcs.RepoRef{}, "", err
	}
	token, err := s.box.Open(project.TokenCipher)
	if err != nil {
		return nil, vcs.RepoRef{}, "", fmt.Errorf("%w: open project token: %v", appErr.ErrInternal, err)
	}
	return project, ref, token, nil
}
