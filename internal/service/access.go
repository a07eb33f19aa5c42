package service

import (
	"context"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

// access resolves the caller's role on an active project. Non-members get
// ErrForbidden; members of an archived project get ErrNotFound.
type access struct {
	projects projectStore
	members  memberStore
}

func (a access) member(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	m, err := a.members.Get(ctx, projectID, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrForbidden
		}
		return nil, err
	}
	if _, err := a.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return m, nil
}

func (a access) admin(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	m, err := a.member(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != model.RoleAdmin {
		return nil, appErr.ErrForbidden
	}
	return m, nil
}
