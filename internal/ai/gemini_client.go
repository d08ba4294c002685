package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"hr-rag-assistant/internal/logger"
	"hr-rag-assistant/utils"
)

var (
	ErrQuotaExceeded = errors.New("gemini quota exceeded: wait before retry")
	ErrEmptyResponse = errors.New("gemini returned no text")
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	Tier    string
	Timeout time.Duration
	Retries int
}

// GeminiClient is the text-generation capability: one prompt in, one completion out.
type GeminiClient struct {
	client       *genai.Client
	model        string
	timeout      time.Duration
	retries      int
	breaker      *gobreaker.CircuitBreaker
	rateLimiter  *rate.Limiter
	tokenCounter *TokenCounter
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(cfg.Tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), max(1, limits.RPM/10))

	return &GeminiClient{
		client:       client,
		model:        cfg.Model,
		timeout:      cfg.Timeout,
		retries:      max(0, cfg.Retries),
		breaker:      breaker,
		rateLimiter:  rateLimiter,
		tokenCounter: NewTokenCounter(limits),
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// Generate sends prompt as a single turn and returns the trimmed completion.
// Transient failures are retried with exponential backoff; an open breaker,
// exhausted quota or finished context stops retrying immediately.
func (gc *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.generate_content")
	defer span.End()

	ctx, cancel := utils.WithCustomTimeout(ctx, gc.timeout)
	defer cancel()

	estimated := estimateTokens(prompt)
	span.SetAttributes(
		attribute.String("gemini.model", gc.model),
		attribute.Int("gemini.estimated_tokens", estimated),
	)

	if !gc.tokenCounter.CanConsume(estimated, 1) {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		span.SetStatus(codes.Error, ErrQuotaExceeded.Error())
		return "", ErrQuotaExceeded
	}

	var lastErr error
	for attempt := 0; attempt <= gc.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				lastErr = errors.Join(lastErr, ctx.Err())
				span.SetStatus(codes.Error, lastErr.Error())
				return "", lastErr
			case <-time.After(backoff):
			}
		}

		text, err := gc.generateOnce(ctx, prompt)
		if err == nil {
			span.SetAttributes(attribute.Int("gemini.attempts", attempt+1))
			return text, nil
		}

		lastErr = err
		logger.Warn("Gemini generation failed", "attempt", attempt+1, "error", err)
		if !retryable(ctx, err) {
			break
		}
	}

	span.SetAttributes(attribute.Bool("gemini.error", true))
	if errors.Is(lastErr, gobreaker.ErrOpenState) {
		span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
	}
	span.SetStatus(codes.Error, lastErr.Error())
	return "", lastErr
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, gobreaker.ErrOpenState) &&
		!errors.Is(err, gobreaker.ErrTooManyRequests) &&
		!errors.Is(err, ErrEmptyResponse)
}

func (gc *GeminiClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		gc.tokenCounter.RecordUsage(extractTokenUsage(resp), 1)
		return resp, nil
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(responseText(result.(*genai.GenerateContentResponse)))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// TokenCounter tracks minute and day consumption against the tier limits.
type TokenCounter struct {
	mu              sync.Mutex
	limits          RateLimits
	minuteTokens    int
	dailyTokens     int
	minuteRequests  int
	dailyRequests   int
	lastMinuteReset time.Time
	lastDayReset    time.Time
	now             func() time.Time
}

func NewTokenCounter(limits RateLimits) *TokenCounter {
	return &TokenCounter{limits: limits, now: time.Now}
}

func (tc *TokenCounter) CanConsume(tokens, requests int) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.resetExpired()

	if tc.minuteRequests+requests > tc.limits.RPM {
		return false
	}
	if tc.minuteTokens+tokens > tc.limits.TPM {
		return false
	}
	if tc.dailyRequests+requests > tc.limits.RPD {
		return false
	}
	return true
}

func (tc *TokenCounter) RecordUsage(tokens, requests int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.resetExpired()

	tc.minuteTokens += tokens
	tc.minuteRequests += requests
	tc.dailyTokens += tokens
	tc.dailyRequests += requests
}

func (tc *TokenCounter) resetExpired() {
	now := tc.now()
	if now.Sub(tc.lastMinuteReset) >= time.Minute {
		tc.minuteTokens = 0
		tc.minuteRequests = 0
		tc.lastMinuteReset = now
	}
	if now.Sub(tc.lastDayReset) >= 24*time.Hour {
		tc.dailyTokens = 0
		tc.dailyRequests = 0
		tc.lastDayReset = now
	}
}

// Rough estimation: 1 token ≈ 4 characters
func estimateTokens(prompt string) int {
	return len(prompt)/4 + 1
}

func extractTokenUsage(resp *genai.GenerateContentResponse) int {
	if resp.UsageMetadata != nil {
		return int(resp.UsageMetadata.TotalTokenCount)
	}
	return max(1, len(responseText(resp))/4)
}

func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}
