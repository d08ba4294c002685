package middleware

import (
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

const subjectKey = "subject"

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireAdmin rejects requests without a valid admin session token. Every
// failure gets the same 401 so callers cannot tell which check failed.
func RequireAdmin(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))

		subject, err := verifier.VerifyToken(token)
		if err != nil {
			logger.Warn("Rejected admin request",
				"path", c.FullPath(),
				"ip", c.ClientIP(),
				"request_id", GetRequestID(c),
			)
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(subjectKey, subject)
		c.Next()
	}
}

// GetSubject returns the authenticated admin subject, if any.
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
