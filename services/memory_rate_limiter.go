package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sintudecorators/contact-backend/types"
)

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// MemoryRateLimiter keeps fixed-window counters in process. The number of
// tracked keys is bounded; the least recently used key is evicted first,
// which can only make a limit more lenient for that key.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows *lru.Cache[string, *fixedWindow]
	now     func() time.Time
}

func NewMemoryRateLimiter(capacity int) (*MemoryRateLimiter, error) {
	cache, err := lru.New[string, *fixedWindow](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit cache: %w", err)
	}
	return &MemoryRateLimiter{windows: cache, now: time.Now}, nil
}

func (m *MemoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(window)}
		m.windows.Add(key, w)
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return types.RateLimitResult{
		Allowed:    w.count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: w.resetAt.Sub(now),
	}, nil
}

func (m *MemoryRateLimiter) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows.Peek(key); ok && w.count > 0 && m.now().Before(w.resetAt) {
		w.count--
	}
	return nil
}

// Len returns the number of tracked keys.
func (m *MemoryRateLimiter) Len() int {
	return m.windows.Len()
}
