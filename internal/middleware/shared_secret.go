package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/repomind/internal/pkg/errcode"
	"github.com/xxxsen/repomind/internal/pkg/response"
)

const BillingSecretHeader = "X-Billing-Secret"

// SharedSecret guards machine-to-machine endpoints. An empty secret rejects
// every request.
func SharedSecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Error(c, errcode.ErrUnauthorized, "invalid shared secret")
			c.Abort()
			return
		}
		c.Next()
	}
}
