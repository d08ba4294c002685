package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 60*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "./Data", cfg.DataDir)
	assert.Equal(t, "google", cfg.EmbeddingsProvider)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("TOP_K", "3")
	t.Setenv("MIN_RELEVANCE", "0.25")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, 15*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, 3, cfg.TopK)
	assert.InDelta(t, 0.25, cfg.MinRelevance, 1e-9)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 12, cfg.BcryptCost)
}

func validConfig() *Config {
	cfg := FromEnv()
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.AdminPassword = "admin123"
	cfg.EmbeddingsProvider = "local"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "missing password", mutate: func(c *Config) { c.AdminPassword = "" }, wantErr: "ADMIN_PASSWORD"},
		{name: "google without key", mutate: func(c *Config) {
			c.EmbeddingsProvider = "google"
			c.GeminiAPIKey = ""
		}, wantErr: "GEMINI_API_KEY"},
		{name: "unknown provider", mutate: func(c *Config) { c.EmbeddingsProvider = "faiss" }, wantErr: "unknown embeddings provider"},
		{name: "overlap too large", mutate: func(c *Config) { c.ChunkOverlap = c.MaxChunkSize }, wantErr: "CHUNK_OVERLAP"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
