package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/errcode"
	"github.com/xxxsen/repomind/internal/pkg/jwt"
	"github.com/xxxsen/repomind/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// JWTAuth accepts HS256 bearer tokens from the session service and stores the
// caller's user id under ContextUserIDKey.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, errcode.ErrUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		userID, err := jwt.ParseToken(token, secret)
		if err != nil {
			response.Error(c, errcode.ErrUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}
