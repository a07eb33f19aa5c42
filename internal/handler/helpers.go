package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/repomind/internal/middleware"
	"github.com/xxxsen/repomind/internal/pkg/errcode"
	"github.com/xxxsen/repomind/internal/pkg/response"
	"github.com/xxxsen/repomind/internal/service"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func badRequest(c *gin.Context, msg string) {
	response.Error(c, errcode.ErrInvalid, msg)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	var insufficient *service.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		response.Error(c, errcode.ErrInsufficientCredits, insufficient.Error())
		return
	}
	response.FromError(c, err)
}
