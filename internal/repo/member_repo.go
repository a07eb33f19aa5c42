package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) Get(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	sqlStr, args, err := selectQuery("project_members", map[string]interface{}{
		"project_id": projectID,
		"user_id":    userID,
	}, []string{"project_id", "user_id", "role", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	var item model.ProjectMember
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&item.ProjectID, &item.UserID, &item.Role, &item.Ctime, &item.Mtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MemberRepo) ListByProject(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	sqlStr, args, err := selectQuery("project_members", map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "ctime asc",
	}, []string{"project_id", "user_id", "role", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.ProjectMember
	for rows.Next() {
		var item model.ProjectMember
		if err := rows.Scan(&item.ProjectID, &item.UserID, &item.Role, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// upsertMember keeps an existing role; joining never demotes an admin.
func upsertMember(ctx context.Context, ex execer, m *model.ProjectMember) error {
	const query = `
		INSERT INTO project_members (project_id, user_id, role, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project_id, user_id) DO UPDATE SET mtime = EXCLUDED.mtime
	`
	_, err := ex.ExecContext(ctx, query, m.ProjectID, m.UserID, m.Role, m.Ctime, m.Mtime)
	return err
}
