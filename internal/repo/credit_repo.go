package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type CreditRepo struct {
	db *sql.DB
}

func NewCreditRepo(db *sql.DB) *CreditRepo {
	return &CreditRepo{db: db}
}

func (r *CreditRepo) Balance(ctx context.Context, userID string) (int64, error) {
	return balance(ctx, r.db, userID, false)
}

// Debit locks the account row, checks the balance and records the debit in one
// transaction. txn.Delta must be negative. When the balance is too low nothing
// is written and the current balance is returned with ErrInsufficientCredits.
func (r *CreditRepo) Debit(ctx context.Context, txn *model.CreditTransaction) (int64, error) {
	var available int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := balance(ctx, tx, txn.UserID, true)
		if err != nil {
			return err
		}
		available = current
		if current+txn.Delta < 0 {
			return appErr.ErrInsufficientCredits
		}
		const update = `UPDATE credit_accounts SET credits = credits + $1, mtime = $2 WHERE user_id = $3`
		if _, err := tx.ExecContext(ctx, update, txn.Delta, txn.Ctime, txn.UserID); err != nil {
			return err
		}
		_, err = insertTransaction(ctx, tx, txn, "")
		return err
	})
	return available, err
}

// Grant credits the account once per (reason, ref). A replayed grant returns false.
func (r *CreditRepo) Grant(ctx context.Context, txn *model.CreditTransaction) (bool, error) {
	applied := false
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		inserted, err := insertTransaction(ctx, tx, txn, "ON CONFLICT (reason, ref) WHERE reason = 'grant' DO NOTHING")
		if err != nil {
			return err
		}
		if inserted == 0 {
			return nil
		}
		applied = true
		return addCredits(ctx, tx, txn.UserID, txn.Delta, txn.Ctime)
	})
	return applied, err
}

// Refund returns credits for work that never started.
func (r *CreditRepo) Refund(ctx context.Context, txn *model.CreditTransaction) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := insertTransaction(ctx, tx, txn, ""); err != nil {
			return err
		}
		return addCredits(ctx, tx, txn.UserID, txn.Delta, txn.Ctime)
	})
}

func (r *CreditRepo) ListTransactions(ctx context.Context, userID string, limit int) ([]model.CreditTransaction, error) {
	sqlStr, args, err := selectQuery("credit_transactions", map[string]interface{}{
		"user_id":  userID,
		"_orderby": "ctime desc",
		"_limit":   []uint{0, uint(limit)},
	}, []string{"id", "user_id", "delta", "reason", "ref", "ctime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.CreditTransaction
	for rows.Next() {
		var item model.CreditTransaction
		if err := rows.Scan(&item.ID, &item.UserID, &item.Delta, &item.Reason, &item.Ref, &item.Ctime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func balance(ctx context.Context, ex execer, userID string, lock bool) (int64, error) {
	query := `SELECT credits FROM credit_accounts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var credits int64
	err := ex.QueryRowContext(ctx, query, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return credits, err
}

func addCredits(ctx context.Context, ex execer, userID string, delta, now int64) error {
	const query = `
		INSERT INTO credit_accounts (user_id, credits, mtime) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET credits = credit_accounts.credits + EXCLUDED.credits, mtime = EXCLUDED.mtime
	`
	_, err := ex.ExecContext(ctx, query, userID, delta, now)
	return err
}

func insertTransaction(ctx context.Context, ex execer, txn *model.CreditTransaction, suffix string) (int64, error) {
	return insertRows(ctx, ex, "credit_transactions", []map[string]interface{}{{
		"id":      txn.ID,
		"user_id": txn.UserID,
		"delta":   txn.Delta,
		"reason":  txn.Reason,
		"ref":     txn.Ref,
		"ctime":   txn.Ctime,
	}}, suffix)
}
