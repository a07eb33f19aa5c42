package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/repomind/internal/pkg/dbutil"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRows(ctx context.Context, ex execer, table string, rows []map[string]interface{}, suffix string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	sqlStr, args, err := builder.BuildInsert(table, rows)
	if err != nil {
		return 0, err
	}
	if suffix != "" {
		sqlStr += " " + suffix
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := ex.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func updateRows(ctx context.Context, ex execer, table string, where, update map[string]interface{}) (int64, error) {
	sqlStr, args, err := builder.BuildUpdate(table, where, update)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := ex.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func selectQuery(table string, where map[string]interface{}, fields []string) (string, []interface{}, error) {
	sqlStr, args, err := builder.BuildSelect(table, where, fields)
	if err != nil {
		return "", nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return sqlStr, args, nil
}
