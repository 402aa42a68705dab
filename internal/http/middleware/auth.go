// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides Auth, which resolves the caller's identity through an
// identity.Provider and stores it in the Gin context for handlers, the rate
// limiter and the access log.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-time-vault/internal/identity"
)

// Gin context keys set by Auth.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

// Auth rejects unauthenticated requests with 401 and the standard error
// envelope. On success the user id and email are available under CtxUserID
// and CtxUserEmail.
func Auth(p identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := p.Authenticate(c.Request)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
			return
		}
		c.Set(CtxUserID, id.UserID)
		c.Set(CtxUserEmail, id.Email)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when Auth did not run.
func UserID(c *gin.Context) string {
	v, _ := c.Get(CtxUserID)
	return asString(v)
}

// UserEmail returns the authenticated user's email, or "".
func UserEmail(c *gin.Context) string {
	v, _ := c.Get(CtxUserEmail)
	return asString(v)
}
