package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
	"github.com/xxxsen/repomind/internal/vcs"
)

const maxProjectNameChars = 100

// ProjectEventPublisher announces lifecycle events to background workers.
type ProjectEventPublisher interface {
	PublishProjectCreated(ctx context.Context, projectID, userID string) error
}

type CreateProjectInput struct {
	Name    string
	RepoURL string
	Token   string
}

type ProjectService struct {
	projects projectStore
	access   access
	members  memberStore
	credits  *CreditService
	box      *secret.Box
	events   ProjectEventPublisher
}

func NewProjectService(projects projectStore, members memberStore, credits *CreditService, box *secret.Box, events ProjectEventPublisher) *ProjectService {
	return &ProjectService{
		projects: projects,
		access:   access{projects: projects, members: members},
		members:  members,
		credits:  credits,
		box:      box,
		events:   events,
	}
}

// Create prices the repository, debits the creator and stores the project with
// the creator as admin. Once the debit succeeds the project is created even if
// indexing later fails; only a failed insert is refunded.
func (s *ProjectService) Create(ctx context.Context, userID string, input CreateProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > maxProjectNameChars {
		return nil, appErr.ErrInvalid
	}
	repoURL := strings.TrimSpace(input.RepoURL)
	if _, err := vcs.ResolveRepo(repoURL); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(input.Token)
	units, err := s.credits.CheckCredits(ctx, repoURL, token)
	if err != nil {
		return nil, err
	}
	projectID := newID()
	debitRef := "project:" + projectID
	if err := s.credits.AuthorizeAndDebit(ctx, userID, units, debitRef); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", projectID), zap.String("user_id", userID))

	cipher, err := s.box.Seal(token)
	if err != nil {
		s.refund(ctx, userID, units, debitRef)
		return nil, fmt.Errorf("%w: seal token: %v", appErr.ErrInternal, err)
	}
	now := timeutil.NowUnix()
	project := &model.Project{
		ID:          projectID,
		Name:        name,
		RepoURL:     repoURL,
		TokenCipher: cipher,
		Ctime:       now,
		Mtime:       now,
	}
	admin := &model.ProjectMember{ProjectID: projectID, UserID: userID, Role: model.RoleAdmin, Ctime: now, Mtime: now}
	if err := s.projects.CreateWithAdmin(ctx, project, admin); err != nil {
		s.refund(ctx, userID, units, debitRef)
		return nil, fmt.Errorf("create project: %w", err)
	}
	logger.Info("project created", zap.String("repo_url", repoURL), zap.Int("units", units))
	if s.events != nil {
		if err := s.events.PublishProjectCreated(ctx, projectID, userID); err != nil {
			logger.Error("publish project created failed", zap.Error(err))
		}
	}
	return project, nil
}

func (s *ProjectService) refund(ctx context.Context, userID string, units int, ref string) {
	if err := s.credits.Refund(ctx, userID, units, ref); err != nil {
		logutil.GetLogger(ctx).Error("refund credits failed",
			zap.String("user_id", userID),
			zap.String("ref", ref),
			zap.Int("units", units),
			zap.Error(err),
		)
	}
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]model.Project, error) {
	return s.projects.ListByUser(ctx, userID)
}

func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.projects.GetByID(ctx, projectID)
}

func (s *ProjectService) Archive(ctx context.Context, userID, projectID string) error {
	if _, err := s.access.admin(ctx, projectID, userID); err != nil {
		return err
	}
	return s.projects.Archive(ctx, projectID, timeutil.NowUnix())
}

func (s *ProjectService) Members(ctx context.Context, userID, projectID string) ([]model.ProjectMember, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.members.ListByProject(ctx, projectID)
}
