package admission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	apperrors "github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/logger"
)

// Decision is the outcome of a reputation check.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// DenyBlocked rejects an address that is already on the blocklist.
	DenyBlocked
	// DenyBurst rejects an address that just exceeded the burst ceiling and
	// has been added to the blocklist.
	DenyBurst
)

// Admitter decides whether a client address may proceed.
type Admitter interface {
	Admit(addr string) Decision
}

// ReputationConfig tunes the tracker.
type ReputationConfig struct {
	// Burst is the request count that, once exceeded inside Window,
	// blocks the address for the life of the process.
	Burst  int
	Window time.Duration
	// Horizon is how long an idle address is remembered before Sweep
	// drops it.
	Horizon time.Duration
	// Capacity caps the number of tracked addresses; the least recently
	// seen entry is evicted first.
	Capacity int
	// BlockedCapacity caps the blocklist. When full, the blocked address
	// that was least recently turned away is released. Zero means Capacity.
	BlockedCapacity int
}

type activity struct {
	count    int
	lastSeen time.Time
}

// ReputationTracker counts requests per address and keeps a blocklist of
// addresses that burst past the ceiling. Both live in bounded LRUs.
// Blocklist entries are never swept, only evicted once BlockedCapacity
// addresses are blocked.
type ReputationTracker struct {
	mu       sync.Mutex
	cfg      ReputationConfig
	activity *lru.Cache[string, *activity]
	blocked  *lru.Cache[string, time.Time]
	now      func() time.Time
}

// NewReputationTracker validates cfg and returns an empty tracker.
func NewReputationTracker(cfg ReputationConfig) (*ReputationTracker, error) {
	if cfg.Burst <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("reputation burst and window must be positive")
	}
	cache, err := lru.New[string, *activity](cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create reputation cache: %w", err)
	}
	if cfg.BlockedCapacity == 0 {
		cfg.BlockedCapacity = cfg.Capacity
	}
	blocked, err := lru.NewWithEvict[string, time.Time](cfg.BlockedCapacity, func(addr string, _ time.Time) {
		logger.GetLogger().Infow("Blocklist full, releasing client address", "client_ip", addr)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reputation blocklist: %w", err)
	}
	return &ReputationTracker{
		cfg:      cfg,
		activity: cache,
		blocked:  blocked,
		now:      time.Now,
	}, nil
}

// Admit records one request from addr and returns the decision.
func (t *ReputationTracker) Admit(addr string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.blocked.Get(addr); ok {
		return DenyBlocked
	}

	now := t.now()
	entry, ok := t.activity.Get(addr)
	if !ok {
		t.activity.Add(addr, &activity{count: 1, lastSeen: now})
		return Allow
	}

	withinWindow := now.Sub(entry.lastSeen) < t.cfg.Window
	if withinWindow && entry.count > t.cfg.Burst {
		t.blocked.Add(addr, now)
		t.activity.Remove(addr)
		logger.GetLogger().Warnw("Blocking client address after request burst",
			"client_ip", addr,
			"count", entry.count,
			"window", t.cfg.Window)
		return DenyBurst
	}

	if withinWindow {
		entry.count++
	} else {
		entry.count = 1
	}
	entry.lastSeen = now
	return Allow
}

// Sweep forgets addresses idle for longer than the horizon and returns how
// many were removed. The blocklist is left untouched.
func (t *ReputationTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	removed := 0
	for _, addr := range t.activity.Keys() {
		entry, ok := t.activity.Peek(addr)
		if ok && now.Sub(entry.lastSeen) > t.cfg.Horizon {
			t.activity.Remove(addr)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (t *ReputationTracker) Run(ctx context.Context, interval time.Duration) {
	log := logger.GetLogger().Named("reputation-sweeper")
	if interval <= 0 {
		log.Info("Reputation sweep disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("Reputation sweeper stopped")
			return
		case <-ticker.C:
			removed := t.Sweep()
			tracked, blocked := t.Stats()
			log.Debugw("Swept idle client addresses",
				"removed", removed,
				"tracked", tracked,
				"blocked", blocked)
		}
	}
}

// IsBlocked reports blocklist membership.
func (t *ReputationTracker) IsBlocked(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blocked.Contains(addr)
}

// Stats returns the number of tracked and blocked addresses.
func (t *ReputationTracker) Stats() (tracked, blocked int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activity.Len(), t.blocked.Len()
}

// Reputation turns away blocked or bursting client addresses.
func Reputation(admitter Admitter) Stage {
	return NewStage("reputation", func(c *gin.Context) *Rejection {
		switch admitter.Admit(c.ClientIP()) {
		case DenyBlocked:
			return RejectError("Forbidden", apperrors.Forbidden(
				"Your IP address has been blocked due to suspicious activity.", "blocked"))
		case DenyBurst:
			return RejectError("Forbidden", apperrors.Forbidden(
				"Your IP address has been blocked due to excessive requests.", "burst"))
		default:
			return nil
		}
	})
}
