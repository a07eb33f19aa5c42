package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
)

type FileEmbeddingRepo struct {
	db *sql.DB
}

func NewFileEmbeddingRepo(db *sql.DB) *FileEmbeddingRepo {
	return &FileEmbeddingRepo{db: db}
}

// Save inserts a new row. Re-indexing a path adds another row; readers take the latest.
func (r *FileEmbeddingRepo) Save(ctx context.Context, item *model.FileEmbedding) error {
	const query = `
		INSERT INTO file_embeddings (id, project_id, file_name, source_code, summary, embedding_state, summary_embedding, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.ProjectID,
		item.FileName,
		item.SourceCode,
		item.Summary,
		string(item.EmbeddingState),
		nullableVector(item.EmbeddingState, item.Embedding),
		item.Ctime,
		item.Mtime,
	)
	return err
}

// ListEmbedded returns the newest embedded row per file of the project.
func (r *FileEmbeddingRepo) ListEmbedded(ctx context.Context, projectID string) ([]model.FileEmbedding, error) {
	const query = `
		SELECT DISTINCT ON (file_name) id, project_id, file_name, source_code, summary, embedding_state, summary_embedding, ctime, mtime
		FROM file_embeddings
		WHERE project_id = $1 AND embedding_state = $2 AND summary_embedding IS NOT NULL
		ORDER BY file_name, ctime DESC, mtime DESC
	`
	return r.list(ctx, query, projectID, string(model.EmbeddingEmbedded))
}

func (r *FileEmbeddingRepo) ListFailed(ctx context.Context, limit int) ([]model.FileEmbedding, error) {
	const query = `
		SELECT id, project_id, file_name, source_code, summary, embedding_state, summary_embedding, ctime, mtime
		FROM file_embeddings
		WHERE embedding_state = $1
		ORDER BY mtime ASC
		LIMIT $2
	`
	return r.list(ctx, query, string(model.EmbeddingFailed), limit)
}

func (r *FileEmbeddingRepo) UpdateEmbedding(ctx context.Context, id string, emb model.Embedding, mtime int64) error {
	const query = `
		UPDATE file_embeddings SET embedding_state = $1, summary_embedding = $2, mtime = $3
		WHERE id = $4
	`
	res, err := r.db.ExecContext(ctx, query, string(emb.State), nullableVector(emb.State, emb.Vector), mtime, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *FileEmbeddingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.FileEmbedding, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.FileEmbedding
	for rows.Next() {
		var item model.FileEmbedding
		var state string
		var vec *pgvector.Vector
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.FileName, &item.SourceCode, &item.Summary, &state, &vec, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		item.EmbeddingState = model.EmbeddingState(state)
		if vec != nil {
			item.Embedding = vec.Slice()
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableVector(state model.EmbeddingState, values []float32) interface{} {
	if state != model.EmbeddingEmbedded || len(values) == 0 {
		return nil
	}
	return pgvector.NewVector(values)
}
