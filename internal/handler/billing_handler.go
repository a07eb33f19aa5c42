package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

type BillingHandler struct {
	credits *service.CreditService
}

func NewBillingHandler(credits *service.CreditService) *BillingHandler {
	return &BillingHandler{credits: credits}
}

type grantRequest struct {
	UserID  string `json:"user_id"`
	Credits int64  `json:"credits"`
	Ref     string `json:"ref"`
}

// Grant is called by the payment collaborator once per completed order.
func (h *BillingHandler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	applied, err := h.credits.Grant(c.Request.Context(), req.UserID, req.Credits, req.Ref)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"applied": applied})
}
