package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/model"
	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

type askRequest struct {
	Question string `json:"question"`
}

type saveQuestionRequest struct {
	Question       string                `json:"question"`
	Answer         string                `json:"answer"`
	FileReferences []model.FileReference `json:"file_references"`
}

func (h *QuestionHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	answer, err := h.questions.Ask(c.Request.Context(), getUserID(c), c.Param("id"), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

func (h *QuestionHandler) Save(c *gin.Context) {
	var req saveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	q, err := h.questions.Save(c.Request.Context(), getUserID(c), c.Param("id"), req.Question, &service.Answer{
		Text:           req.Answer,
		FileReferences: req.FileReferences,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, q)
}

func (h *QuestionHandler) List(c *gin.Context) {
	items, err := h.questions.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}
