package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Corpus Store and persisted index snapshot
	DataDir  string
	IndexDir string

	// Administrator identity and session tokens
	AdminUsername string
	AdminPassword string
	BcryptCost    int
	JWTSecret     string
	JWTExpiresIn  time.Duration

	// Generation capability
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTier        string
	GenerationTimeout time.Duration
	GenerationRetries int

	// Embeddings configuration
	EmbeddingsProvider    string // "google" (default), "local"
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"
	VectorDimensions      int
	LocalEmbeddingDim     int

	// Retrieval
	TopK         int
	MinRelevance float64
	MaxChunkSize int
	ChunkOverlap int

	// Uploads
	MaxFileSize       int64
	AllowedExtensions []string

	RateLimitReqs   int
	RateLimitWindow int

	// Redis Configuration (optional, shared rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// MongoDB Configuration (optional, audit trail)
	MongoURI string
	DBName   string

	// OpenTelemetry
	OTelEnabled  bool
	OTelEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: getEnvList("CORS_ORIGINS", "http://localhost:3000,http://localhost:8501"),

		DataDir:  getEnv("DATA_DIR", "./Data"),
		IndexDir: getEnv("INDEX_DIR", "./faiss_store"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		BcryptCost:    getEnvInt("BCRYPT_COST", 12),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiresIn:  getEnvDuration("JWT_EXPIRES_IN", 60*time.Minute),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:        getEnv("GEMINI_TIER", "free"),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),
		GenerationRetries: getEnvInt("GENERATION_RETRIES", 2),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:      getEnvInt("VECTOR_DIM", 768),
		LocalEmbeddingDim:     getEnvInt("LOCAL_EMBEDDING_DIM", 512),

		TopK:         getEnvInt("TOP_K", 5),
		MinRelevance: getEnvFloat64("MIN_RELEVANCE", 0),
		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedExtensions: getEnvList("ALLOWED_EXTENSIONS", ".pdf,.txt,.md,.csv,.xlsx,.html,.htm,.json"),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", ""),
		DBName:   getEnv("DB_NAME", "hr_assistant"),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),
	}
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 32 characters - set it in .env file")
	}

	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required - set it in .env file")
	}

	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be a positive duration")
	}

	switch c.EmbeddingsProvider {
	case "google":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the google embeddings provider")
		}
	case "local":
	default:
		return fmt.Errorf("unknown embeddings provider: %s", c.EmbeddingsProvider)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}

	if c.ChunkOverlap >= c.MaxChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be smaller than MAX_CHUNK_SIZE")
	}

	return nil
}

// RateLimitWindowDuration is RATE_LIMIT_WINDOW (seconds) as a duration.
func (c *Config) RateLimitWindowDuration() time.Duration {
	return time.Duration(c.RateLimitWindow) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, defaultValue), ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
