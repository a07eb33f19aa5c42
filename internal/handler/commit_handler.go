package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type CommitHandler struct {
	commits *service.CommitService
}

func NewCommitHandler(commits *service.CommitService) *CommitHandler {
	return &CommitHandler{commits: commits}
}

func (h *CommitHandler) List(c *gin.Context) {
	commits, err := h.commits.List(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, commits)
}

func (h *CommitHandler) Regenerate(c *gin.Context) {
	commit, err := h.commits.Regenerate(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, commit)
}

func (h *CommitHandler) Diff(c *gin.Context) {
	diff, err := h.commits.Diff(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"commit_id": c.Param("id"), "diff": diff})
}
