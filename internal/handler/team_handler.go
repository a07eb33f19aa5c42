package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type TeamHandler struct {
	team *service.TeamService
}

func NewTeamHandler(team *service.TeamService) *TeamHandler {
	return &TeamHandler{team: team}
}

type createJoinCodeRequest struct {
	TTLHours int `json:"ttl_hours"`
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *TeamHandler) CreateJoinCode(c *gin.Context) {
	var req createJoinCodeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil || req.TTLHours < 0 {
			badRequest(c, "invalid request")
			return
		}
	}
	code, err := h.team.CreateJoinCode(c.Request.Context(), getUserID(c), c.Param("id"), time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"code": code.Code, "expires_at": code.ExpiresAt})
}

func (h *TeamHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	jc, err := h.team.JoinByCode(c.Request.Context(), getUserID(c), req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"project_id": jc.ProjectID})
}
