package routes

import (
	"errors"
	"net/http"
	"strings"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/vectorindex"
	"hr-rag-assistant/middleware"
	"hr-rag-assistant/models"
	"hr-rag-assistant/services"
	"hr-rag-assistant/utils"

	"github.com/gin-gonic/gin"
)

func SetupChatRoutes(router *gin.Engine, deps Dependencies) {
	router.POST("/chat", middleware.RateLimitMiddleware(deps.Limiter), func(c *gin.Context) {
		var req models.ChatRequest

		// The query may come as ?query= or in the body (JSON or form).
		var err error
		if c.Query("query") != "" {
			err = c.ShouldBindQuery(&req)
		} else {
			err = c.ShouldBind(&req)
		}
		if err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		query := strings.TrimSpace(req.Query)
		if query == "" {
			utils.RespondWithBadRequest(c, "Query must not be empty", nil)
			return
		}

		answer, err := deps.RAG.Ask(c.Request.Context(), query, req.TopK)
		if err != nil {
			requestID := middleware.GetRequestID(c)
			switch {
			case errors.Is(err, vectorindex.ErrNotReady):
				utils.RespondWithServiceUnavailable(c, "index_not_ready", "The policy index is not ready yet")
			case errors.Is(err, services.ErrUpstreamUnavailable):
				logger.Error("Chat upstream failure", "error", err, "request_id", requestID)
				utils.RespondWithServiceUnavailable(c, "upstream_unavailable", "The assistant is temporarily unavailable. Please try again later.")
			default:
				logger.Error("Chat failed", "error", err, "request_id", requestID)
				utils.RespondWithInternalError(c, "Failed to answer the question", nil)
			}
			return
		}

		c.JSON(http.StatusOK, answer)
	})
}
