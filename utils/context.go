package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for audit writes and other bookkeeping
	DefaultTimeout = 10 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithCustomTimeout creates a context with custom timeout duration.
// A non-positive duration leaves the parent deadline untouched.
func WithCustomTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, duration)
}
