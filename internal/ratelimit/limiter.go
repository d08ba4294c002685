package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
}

// Limiter admits or rejects one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
