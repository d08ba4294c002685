package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/ratelimit"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware limits requests per client IP and route. It fails open
// when the limiter backend errors.
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		res, err := limiter.Allow(ctx, key)
		cancel()
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request", "error", err, "request_id", GetRequestID(c))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			retryAfter := int(res.ResetAfter.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{
					"retry_after": retryAfter,
					"limit":       res.Limit,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}
