package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/dbutil"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type JoinCodeRepo struct {
	db *sql.DB
}

func NewJoinCodeRepo(db *sql.DB) *JoinCodeRepo {
	return &JoinCodeRepo{db: db}
}

// Replace removes the project's unused codes and stores the new one. A clash
// with another project's active code returns ErrConflict.
func (r *JoinCodeRepo) Replace(ctx context.Context, code *model.JoinCode) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const del = `DELETE FROM join_codes WHERE project_id = $1 AND used_at = 0`
		if _, err := tx.ExecContext(ctx, del, code.ProjectID); err != nil {
			return err
		}
		_, err := insertRows(ctx, tx, "join_codes", []map[string]interface{}{{
			"id":         code.ID,
			"project_id": code.ProjectID,
			"code":       code.Code,
			"expires_at": code.ExpiresAt,
			"used_at":    0,
			"used_by":    "",
			"ctime":      code.Ctime,
		}}, "")
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	})
}

// Consume validates the code and adds member in the same transaction. The
// code row is locked, so concurrent joins with one code see exactly one success.
func (r *JoinCodeRepo) Consume(ctx context.Context, code string, member *model.ProjectMember, now int64) (*model.JoinCode, error) {
	var out *model.JoinCode
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		const query = `
			SELECT id, project_id, code, expires_at, used_at, used_by, ctime
			FROM join_codes WHERE code = $1
			ORDER BY used_at ASC, ctime DESC
			LIMIT 1
			FOR UPDATE
		`
		var jc model.JoinCode
		err := tx.QueryRowContext(ctx, query, code).Scan(&jc.ID, &jc.ProjectID, &jc.Code, &jc.ExpiresAt, &jc.UsedAt, &jc.UsedBy, &jc.Ctime)
		if errors.Is(err, sql.ErrNoRows) {
			return appErr.ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if jc.UsedAt != 0 {
			return appErr.ErrCodeUsed
		}
		if jc.ExpiresAt <= now {
			return appErr.ErrCodeExpired
		}
		var deletedAt int64
		err = tx.QueryRowContext(ctx, `SELECT deleted_at FROM projects WHERE id = $1`, jc.ProjectID).Scan(&deletedAt)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && deletedAt != 0) {
			return appErr.ErrInvalidCode
		}
		if err != nil {
			return err
		}
		affected, err := updateRows(ctx, tx, "join_codes",
			map[string]interface{}{"id": jc.ID, "used_at": 0},
			map[string]interface{}{"used_at": now, "used_by": member.UserID},
		)
		if err != nil {
			return err
		}
		if affected == 0 {
			return appErr.ErrCodeUsed
		}
		member.ProjectID = jc.ProjectID
		if err := upsertMember(ctx, tx, member); err != nil {
			return err
		}
		jc.UsedAt = now
		jc.UsedBy = member.UserID
		out = &jc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStale removes used codes and codes expired before now.
func (r *JoinCodeRepo) DeleteStale(ctx context.Context, now int64) (int64, error) {
	const query = `DELETE FROM join_codes WHERE used_at > 0 OR expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
