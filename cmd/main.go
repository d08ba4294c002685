package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hr-rag-assistant/internal/ai"
	"hr-rag-assistant/internal/audit"
	"hr-rag-assistant/internal/auth"
	"hr-rag-assistant/internal/config"
	"hr-rag-assistant/internal/corpus"
	"hr-rag-assistant/internal/extract"
	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/internal/ratelimit"
	"hr-rag-assistant/internal/telemetry"
	"hr-rag-assistant/internal/vectorindex"
	"hr-rag-assistant/routes"
	"hr-rag-assistant/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required to answer questions")
	}

	logger.InitLogger(cfg)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Telemetry
	var metrics *telemetry.Metrics
	if cfg.OTelEnabled {
		environment := "development"
		if cfg.GinMode == "release" {
			environment = "production"
		}
		shutdown, err := telemetry.InitTracer(ctx, "hr-rag-assistant", cfg.OTelEndpoint, environment)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown(context.Background())
		}

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			logger.Warn("Metrics disabled", "error", err)
		}
	}

	// Generation capability
	generator, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Tier:    cfg.GeminiTier,
		Timeout: cfg.GenerationTimeout,
		Retries: cfg.GenerationRetries,
	})
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer generator.Close()

	// Embeddings, corpus and index
	embedder, closeEmbedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}
	defer closeEmbedder()

	store, err := corpus.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to open corpus store:", err)
	}
	index := vectorindex.New(cfg.IndexDir, embedder, cfg.MinRelevance)
	corpusService := services.NewCorpusService(store, extract.New(cfg.MaxChunkSize, cfg.ChunkOverlap), index, metrics)

	if err := corpusService.Initialize(ctx); err != nil {
		log.Fatal("Failed to initialize index:", err)
	}
	logger.Info("Index ready", "passages", corpusService.PassageCount(), "embedder", embedder.Name())

	// Administrator identity
	credentials, err := auth.NewStaticCredentialStore(cfg.AdminUsername, cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatal("Failed to hash admin credentials:", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		log.Fatal("Failed to create token issuer:", err)
	}

	// Rate limiting: shared via Redis when configured
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitReqs, cfg.RateLimitWindowDuration())
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process rate limiting", "error", err)
		} else {
			defer rdb.Close()
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimitReqs, cfg.RateLimitWindowDuration())
		}
	}

	// Audit trail: MongoDB when configured
	var recorder audit.Recorder = audit.LogRecorder{}
	if cfg.MongoURI != "" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()

		mongoRecorder, err := audit.NewMongoRecorder(ctx, mongoClient.Database(cfg.DBName))
		if err != nil {
			log.Fatal("Failed to initialize audit trail:", err)
		}
		recorder = mongoRecorder
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:  cfg,
		Auth:    auth.NewService(credentials, tokens),
		RAG:     services.NewRAGService(index, generator, cfg.TopK, metrics),
		Corpus:  corpusService,
		Limiter: limiter,
		Audit:   recorder,
		Metrics: metrics,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
