package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket refilling reqs tokens per window.
// Idle keys are pruned after a few windows.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	reqs     int
	window   time.Duration
	every    rate.Limit
	checks   int
	now      func() time.Time
}

func NewMemoryLimiter(reqs int, window time.Duration) *MemoryLimiter {
	if reqs <= 0 {
		reqs = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		reqs:     reqs,
		window:   window,
		every:    rate.Limit(float64(reqs) / window.Seconds()),
		now:      time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	m.checks++
	if m.checks%1000 == 0 {
		m.prune(now)
	}

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.reqs)}
		m.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	remaining := int(v.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	res := Result{Allowed: allowed, Limit: m.reqs, Remaining: remaining}
	if !allowed {
		res.ResetAfter = time.Duration(float64(time.Second) / float64(m.every))
	}
	return res, nil
}

func (m *MemoryLimiter) prune(now time.Time) {
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > 3*m.window {
			delete(m.visitors, key)
		}
	}
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}
