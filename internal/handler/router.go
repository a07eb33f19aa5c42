package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/middleware"
)

type RouterDeps struct {
	Projects      *ProjectHandler
	Commits       *CommitHandler
	Credits       *CreditHandler
	Questions     *QuestionHandler
	Team          *TeamHandler
	Billing       *BillingHandler
	JWTSecret     []byte
	BillingSecret string
	JoinRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/billing/credits", middleware.SharedSecret(middleware.BillingSecretHeader, deps.BillingSecret), deps.Billing.Grant)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/projects", deps.Projects.Create)
	authGroup.GET("/projects", deps.Projects.List)
	authGroup.GET("/projects/:id", deps.Projects.Get)
	authGroup.DELETE("/projects/:id", deps.Projects.Archive)
	authGroup.GET("/projects/:id/members", deps.Projects.Members)
	authGroup.POST("/projects/:id/sync", deps.Projects.Sync)

	authGroup.GET("/projects/:id/commits", deps.Commits.List)
	authGroup.POST("/commits/:id/regenerate", deps.Commits.Regenerate)
	authGroup.GET("/commits/:id/diff", deps.Commits.Diff)

	authGroup.POST("/credits/check", deps.Credits.Check)
	authGroup.GET("/credits", deps.Credits.Balance)

	authGroup.POST("/projects/:id/questions", deps.Questions.Ask)
	authGroup.POST("/projects/:id/questions/save", deps.Questions.Save)
	authGroup.GET("/projects/:id/questions", deps.Questions.List)

	authGroup.POST("/projects/:id/join-codes", deps.Team.CreateJoinCode)
	authGroup.POST("/join", middleware.RateLimit(deps.JoinRateLimit), deps.Team.Join)
}
