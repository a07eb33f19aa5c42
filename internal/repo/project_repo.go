package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

var projectFields = []string{"id", "name", "repo_url", "token_cipher", "ctime", "mtime", "deleted_at"}

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// CreateWithAdmin inserts the project and the creator's ADMIN membership atomically.
func (r *ProjectRepo) CreateWithAdmin(ctx context.Context, project *model.Project, admin *model.ProjectMember) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := insertRows(ctx, tx, "projects", []map[string]interface{}{{
			"id":           project.ID,
			"name":         project.Name,
			"repo_url":     project.RepoURL,
			"token_cipher": project.TokenCipher,
			"ctime":        project.Ctime,
			"mtime":        project.Mtime,
			"deleted_at":   0,
		}}, ""); err != nil {
			return err
		}
		return upsertMember(ctx, tx, admin)
	})
}

func (r *ProjectRepo) GetByID(ctx context.Context, projectID string) (*model.Project, error) {
	sqlStr, args, err := selectQuery("projects", map[string]interface{}{
		"id":         projectID,
		"deleted_at": 0,
	}, projectFields)
	if err != nil {
		return nil, err
	}
	item, err := scanProject(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	return item, err
}

func (r *ProjectRepo) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	const query = `
		SELECT p.id, p.name, p.repo_url, p.token_cipher, p.ctime, p.mtime, p.deleted_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1 AND p.deleted_at = 0
		ORDER BY p.ctime DESC
	`
	return r.list(ctx, query, userID)
}

func (r *ProjectRepo) ListActive(ctx context.Context) ([]model.Project, error) {
	sqlStr, args, err := selectQuery("projects", map[string]interface{}{
		"deleted_at": 0,
		"_orderby":   "ctime asc",
	}, projectFields)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, sqlStr, args...)
}

func (r *ProjectRepo) Archive(ctx context.Context, projectID string, now int64) error {
	affected, err := updateRows(ctx, r.db, "projects",
		map[string]interface{}{"id": projectID, "deleted_at": 0},
		map[string]interface{}{"deleted_at": now, "mtime": now},
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Project
	for rows.Next() {
		item, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*model.Project, error) {
	var item model.Project
	if err := row.Scan(&item.ID, &item.Name, &item.RepoURL, &item.TokenCipher, &item.Ctime, &item.Mtime, &item.DeletedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
