package routes

import (
	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/auth"
	"hr-rag-assistant/internal/config"
	"hr-rag-assistant/internal/ratelimit"
	"hr-rag-assistant/internal/telemetry"
	"hr-rag-assistant/middleware"
	"hr-rag-assistant/services"

	"github.com/gin-gonic/gin"
)

const serviceName = "hr-rag-assistant"

// Dependencies are the long-lived components the gateway routes to.
type Dependencies struct {
	Config  *config.Config
	Auth    *auth.Service
	RAG     *services.RAGService
	Corpus  *services.CorpusService
	Limiter ratelimit.Limiter
	Audit   audit.Recorder
	Metrics *telemetry.Metrics
}

// NewRouter builds the gin engine with the shared middleware stack and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewMemoryLimiter(deps.Config.RateLimitReqs, deps.Config.RateLimitWindowDuration())
	}
	if deps.Audit == nil {
		deps.Audit = audit.LogRecorder{}
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if deps.Config.OTelEnabled {
		router.Use(middleware.TracingMiddleware(serviceName))
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	router.Use(middleware.CORSMiddlewareWithOrigins(deps.Config.CORSOrigins))

	SetupHealthRoutes(router, deps)
	SetupAuthRoutes(router, deps)
	SetupChatRoutes(router, deps)
	SetupAdminRoutes(router, deps)

	return router
}
