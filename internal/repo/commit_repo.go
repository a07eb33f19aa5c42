package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/dbutil"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

var commitFields = []string{"id", "project_id", "commit_hash", "author_name", "author_avatar", "message", "commit_time", "summary", "ctime", "mtime"}

type CommitRepo struct {
	db *sql.DB
}

func NewCommitRepo(db *sql.DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// ExistingHashes returns which of hashes are already recorded for the project.
func (r *CommitRepo) ExistingHashes(ctx context.Context, projectID string, hashes []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}
	query, args, err := dbutil.ExpandIn(
		"SELECT commit_hash FROM commits WHERE project_id = ? AND commit_hash IN (?)",
		projectID, hashes,
	)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, err
		}
		out[hash] = struct{}{}
	}
	return out, rows.Err()
}

// BulkInsert stores commits in one statement. Rows whose (project_id,
// commit_hash) already exist are skipped; the number actually inserted is returned.
func (r *CommitRepo) BulkInsert(ctx context.Context, commits []model.Commit) (int64, error) {
	rows := make([]map[string]interface{}, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, map[string]interface{}{
			"id":            c.ID,
			"project_id":    c.ProjectID,
			"commit_hash":   c.CommitHash,
			"author_name":   c.AuthorName,
			"author_avatar": c.AuthorAvatar,
			"message":       c.Message,
			"commit_time":   c.CommitTime,
			"summary":       c.Summary,
			"ctime":         c.Ctime,
			"mtime":         c.Mtime,
		})
	}
	return insertRows(ctx, r.db, "commits", rows, "ON CONFLICT (project_id, commit_hash) DO NOTHING")
}

func (r *CommitRepo) GetByID(ctx context.Context, id string) (*model.Commit, error) {
	sqlStr, args, err := selectQuery("commits", map[string]interface{}{"id": id}, commitFields)
	if err != nil {
		return nil, err
	}
	item, err := scanCommit(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErr.ErrNotFound
	}
	return item, err
}

func (r *CommitRepo) ListByProject(ctx context.Context, projectID string) ([]model.Commit, error) {
	sqlStr, args, err := selectQuery("commits", map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "commit_time desc",
	}, commitFields)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Commit
	for rows.Next() {
		item, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *CommitRepo) UpdateSummary(ctx context.Context, id, summary string, mtime int64) error {
	affected, err := updateRows(ctx, r.db, "commits",
		map[string]interface{}{"id": id},
		map[string]interface{}{"summary": summary, "mtime": mtime},
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanCommit(row rowScanner) (*model.Commit, error) {
	var c model.Commit
	if err := row.Scan(&c.ID, &c.ProjectID, &c.CommitHash, &c.AuthorName, &c.AuthorAvatar, &c.Message, &c.CommitTime, &c.Summary, &c.Ctime, &c.Mtime); err != nil {
		return nil, err
	}
	return &c, nil
}
