package service

import (
	"context"

	"github.com/xxxsen/repomind/internal/model"
)

type projectStore interface {
	CreateWithAdmin(ctx context.Context, project *model.Project, admin *model.ProjectMember) error
	GetByID(ctx context.Context, projectID string) (*model.Project, error)
	ListByUser(ctx context.Context, userID string) ([]model.Project, error)
	ListActive(ctx context.Context) ([]model.Project, error)
	Archive(ctx context.Context, projectID string, now int64) error
}

type memberStore interface {
	Get(ctx context.Context, projectID, userID string) (*model.ProjectMember, error)
	ListByProject(ctx context.Context, projectID string) ([]model.ProjectMember, error)
}

type commitStore interface {
	ExistingHashes(ctx context.Context, projectID string, hashes []string) (map[string]struct{}, error)
	BulkInsert(ctx context.Context, commits []model.Commit) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Commit, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Commit, error)
	UpdateSummary(ctx context.Context, id, summary string, mtime int64) error
}

type fileEmbeddingStore interface {
	Save(ctx context.Context, item *model.FileEmbedding) error
	ListEmbedded(ctx context.Context, projectID string) ([]model.FileEmbedding, error)
	ListFailed(ctx context.Context, limit int) ([]model.FileEmbedding, error)
	UpdateEmbedding(ctx context.Context, id string, emb model.Embedding, mtime int64) error
}

type creditLedger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, txn *model.CreditTransaction) (int64, error)
	Grant(ctx context.Context, txn *model.CreditTransaction) (bool, error)
	Refund(ctx context.Context, txn *model.CreditTransaction) error
	ListTransactions(ctx context.Context, userID string, limit int) ([]model.CreditTransaction, error)
}

type joinCodeStore interface {
	Replace(ctx context.Context, code *model.JoinCode) error
	Consume(ctx context.Context, code string, member *model.ProjectMember, now int64) (*model.JoinCode, error)
	DeleteStale(ctx context.Context, now int64) (int64, error)
}

type questionStore interface {
	Create(ctx context.Context, q *model.Question) error
	ListByProject(ctx context.Context, projectID string) ([]model.Question, error)
}

type diffSummarizer interface {
	SummarizeDiff(ctx context.Context, diff string) (string, error)
}

type fileSummarizer interface {
	SummarizeFile(ctx context.Context, path, content string) (string, error)
	Embed(ctx context.Context, text string) model.Embedding
}

type answerer interface {
	Answer(ctx context.Context, question string, refs []model.FileReference) (string, error)
}
