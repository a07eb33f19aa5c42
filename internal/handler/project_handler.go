package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	pipeline *service.PipelineService
}

func NewProjectHandler(projects *service.ProjectService, pipeline *service.PipelineService) *ProjectHandler {
	return &ProjectHandler{projects: projects, pipeline: pipeline}
}

type createProjectRequest struct {
	Name    string `json:"name"`
	RepoURL string `json:"repo_url"`
	Token   string `json:"token"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	project, err := h.projects.Create(c.Request.Context(), getUserID(c), service.CreateProjectInput{
		Name:    req.Name,
		RepoURL: req.RepoURL,
		Token:   req.Token,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, projects)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, project)
}

func (h *ProjectHandler) Archive(c *gin.Context) {
	if err := h.projects.Archive(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *ProjectHandler) Members(c *gin.Context) {
	members, err := h.projects.Members(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, members)
}

// Sync runs commit ingestion inline and returns its report.
func (h *ProjectHandler) Sync(c *gin.Context) {
	report, err := h.pipeline.SyncForUser(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
