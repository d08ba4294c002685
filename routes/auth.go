package routes

import (
	"net/http"

	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/middleware"
	"hr-rag-assistant/models"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(router *gin.Engine, deps Dependencies) {
	router.POST("/login",
		middleware.RateLimitMiddleware(deps.Limiter),
		middleware.AuditMiddleware(deps.Audit, deps.Metrics, audit.ActionLogin),
		func(c *gin.Context) {
			var req models.LoginRequest
			if err := c.ShouldBind(&req); err != nil {
				utils.RespondWithBadRequest(c, "Username and password are required", nil)
				return
			}
			middleware.SetAuditActor(c, req.Username)

			token, err := deps.Auth.Login(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				logger.Warn("Failed login attempt", "ip", c.ClientIP(), "request_id", middleware.GetRequestID(c))
				utils.RespondWithUnauthorized(c, "Invalid username or password")
				return
			}

			c.JSON(http.StatusOK, models.LoginResponse{
				AccessToken: token.Token,
				TokenType:   "bearer",
				ExpiresAt:   token.ExpiresAt,
			})
		})
}
