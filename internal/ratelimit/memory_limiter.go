package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type bucket struct {
	attempts []time.Time
}

// MemoryLimiter is the in-process fallback used when Redis is unavailable.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		log:     log,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	bkt := m.buckets[key]
	if bkt == nil {
		bkt = &bucket{attempts: make([]time.Time, 0, 8)}
		m.buckets[key] = bkt
	}

	bkt.attempts = keepRecent(bkt.attempts, windowStart)
	count := len(bkt.attempts)

	allowed := count < limit
	if allowed {
		bkt.attempts = append(bkt.attempts, now)
		count++
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Cleanup removes buckets that have been inactive for more than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, bkt := range m.buckets {
		if len(bkt.attempts) == 0 || bkt.attempts[len(bkt.attempts)-1].Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

func keepRecent(attempts []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(attempts) && attempts[firstIdx].Before(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return attempts
	}

	if firstIdx >= len(attempts) {
		return attempts[:0]
	}

	copy(attempts, attempts[firstIdx:])
	return attempts[:len(attempts)-firstIdx]
}
