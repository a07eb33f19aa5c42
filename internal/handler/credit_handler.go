package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type CreditHandler struct {
	credits *service.CreditService
}

func NewCreditHandler(credits *service.CreditService) *CreditHandler {
	return &CreditHandler{credits: credits}
}

type checkCreditsRequest struct {
	RepoURL string `json:"repo_url"`
	Token   string `json:"token"`
}

func (h *CreditHandler) Check(c *gin.Context) {
	var req checkCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	ctx := c.Request.Context()
	units, err := h.credits.CheckCredits(ctx, req.RepoURL, req.Token)
	if err != nil {
		handleError(c, err)
		return
	}
	balance, err := h.credits.Balance(ctx, getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"required_units": units, "balance": balance})
}

func (h *CreditHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()
	userID := getUserID(c)
	limit, _ := strconv.Atoi(c.Query("limit"))
	balance, err := h.credits.Balance(ctx, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	txns, err := h.credits.Transactions(ctx, userID, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"credits": balance, "transactions": txns})
}
