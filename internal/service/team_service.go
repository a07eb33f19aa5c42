package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
)

const joinCodeAttempts = 5

type TeamService struct {
	access access
	codes  joinCodeStore
	ttl    time.Duration
}

func NewTeamService(projects projectStore, members memberStore, codes joinCodeStore, ttl time.Duration) *TeamService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TeamService{access: access{projects: projects, members: members}, codes: codes, ttl: ttl}
}

// CreateJoinCode replaces the project's active code with a fresh one valid for
// ttl, or for the configured default when ttl is zero.
func (s *TeamService) CreateJoinCode(ctx context.Context, userID, projectID string, ttl time.Duration) (*model.JoinCode, error) {
	if ttl < 0 {
		return nil, appErr.ErrInvalid
	}
	if ttl == 0 {
		ttl = s.ttl
	}
	if _, err := s.access.admin(ctx, projectID, userID); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}
		now := timeutil.NowUnix()
		item := &model.JoinCode{
			ID:        newID(),
			ProjectID: projectID,
			Code:      code,
			ExpiresAt: now + int64(ttl/time.Second),
			Ctime:     now,
		}
		err = s.codes.Replace(ctx, item)
		if err == nil {
			return item, nil
		}
		if !appErr.IsConflict(err) {
			return nil, err
		}
		lastErr = err
		logutil.GetLogger(ctx).Debug("join code collision, retrying", zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// JoinByCode adds the caller to the code's project. A code admits exactly one
// user; concurrent joins race on the same row and only one wins.
func (s *TeamService) JoinByCode(ctx context.Context, userID, code string) (*model.JoinCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, appErr.ErrInvalidCode
	}
	now := timeutil.NowUnix()
	member := &model.ProjectMember{UserID: userID, Role: model.RoleMember, Ctime: now, Mtime: now}
	jc, err := s.codes.Consume(ctx, code, member, now)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("user joined project", zap.String("project_id", jc.ProjectID), zap.String("user_id", userID))
	return jc, nil
}

func (s *TeamService) CleanupStale(ctx context.Context) (int64, error) {
	return s.codes.DeleteStale(ctx, timeutil.NowUnix())
}
