package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/xxxsen/repomind/internal/model"
)

type QuestionRepo struct {
	db *sql.DB
}

func NewQuestionRepo(db *sql.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) Create(ctx context.Context, q *model.Question) error {
	refs := q.FileReferences
	if refs == nil {
		refs = []model.FileReference{}
	}
	blob, err := json.Marshal(refs)
	if err != nil {
		return err
	}
	_, err = insertRows(ctx, r.db, "questions", []map[string]interface{}{{
		"id":              q.ID,
		"project_id":      q.ProjectID,
		"user_id":         q.UserID,
		"question":        q.Question,
		"answer":          q.Answer,
		"file_references": string(blob),
		"ctime":           q.Ctime,
	}}, "")
	return err
}

func (r *QuestionRepo) ListByProject(ctx context.Context, projectID string) ([]model.Question, error) {
	sqlStr, args, err := selectQuery("questions", map[string]interface{}{
		"project_id": projectID,
		"_orderby":   "ctime desc",
	}, []string{"id", "project_id", "user_id", "question", "answer", "file_references", "ctime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Question
	for rows.Next() {
		var item model.Question
		var blob []byte
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.UserID, &item.Question, &item.Answer, &blob, &item.Ctime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(blob, &item.FileReferences); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
