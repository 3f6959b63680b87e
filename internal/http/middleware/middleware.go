// Package middleware provides shared Gin middleware: request logging and the
// bearer-token auth guard.
package middleware

import (
	"net/http"
	"time"

	"accountd/internal/account"
	apphttp "accountd/internal/http"
	"accountd/internal/http/response"
	"accountd/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUIDKey is the gin context key holding the authenticated uid.
	ContextUIDKey = "uid"
	// ContextEmailKey is the gin context key holding the authenticated email.
	ContextEmailKey = "email"
)

// RequestLogger logs every request with method, path, status and latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := float64(time.Since(start).Microseconds()) / 1000.0
		log.HTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), latency, c.ClientIP())
	}
}

// RequireAuth verifies the Bearer token through the reconciliation engine and
// stores the owning profile's uid and email on the context. Every failure is
// the same uniform 401; callers learn nothing about why verification failed.
func RequireAuth(engine account.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := apphttp.ExtractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "no token provided")
			c.Abort()
			return
		}

		profile, err := engine.VerifyToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUIDKey, profile.UID)
		if profile.Email != nil {
			c.Set(ContextEmailKey, *profile.Email)
		}
		c.Next()
	}
}
