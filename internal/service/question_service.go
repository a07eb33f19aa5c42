package service

import (
	"context"
	"strings"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/timeutil"
)

type Answer struct {
	Text           string                `json:"answer"`
	FileReferences []model.FileReference `json:"file_references"`
}

type QuestionService struct {
	access    access
	retrieval *RetrievalService
	ai        answerer
	questions questionStore
}

func NewQuestionService(projects projectStore, members memberStore, retrieval *RetrievalService, ai answerer, questions questionStore) *QuestionService {
	return &QuestionService{access: access{projects: projects, members: members}, retrieval: retrieval, ai: ai, questions: questions}
}

func (s *QuestionService) Ask(ctx context.Context, userID, projectID, question string) (*Answer, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, appErr.ErrInvalid
	}
	files, err := s.retrieval.Retrieve(ctx, question, projectID, 0)
	if err != nil {
		return nil, err
	}
	refs := make([]model.FileReference, 0, len(files))
	for _, f := range files {
		refs = append(refs, model.FileReference{FileName: f.FileName, SourceCode: f.SourceCode, Summary: f.Summary})
	}
	text, err := s.ai.Answer(ctx, question, refs)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, FileReferences: refs}, nil
}

func (s *QuestionService) Save(ctx context.Context, userID, projectID, question string, answer *Answer) (*model.Question, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" || answer == nil || strings.TrimSpace(answer.Text) == "" {
		return nil, appErr.ErrInvalid
	}
	refs := answer.FileReferences
	if refs == nil {
		refs = []model.FileReference{}
	}
	item := &model.Question{
		ID:             newID(),
		ProjectID:      projectID,
		UserID:         userID,
		Question:       question,
		Answer:         answer.Text,
		FileReferences: refs,
		Ctime:          timeutil.NowUnix(),
	}
	if err := s.questions.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *QuestionService) List(ctx context.Context, userID, projectID string) ([]model.Question, error) {
	if _, err := s.access.member(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.questions.ListByProject(ctx, projectID)
}
