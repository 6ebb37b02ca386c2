package admission

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
)

// Limiter counts requests per key in fixed windows. Implementations must be
// safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (types.RateLimitResult, error)
	// Release gives back one slot counted by Allow in the current window.
	Release(ctx context.Context, key string) error
}

// RateRule describes one rate limit scope.
type RateRule struct {
	// Scope namespaces the counter key, e.g. "api" or "login".
	Scope    string
	Requests int
	Window   time.Duration
	// Title and Message fill the 429 body.
	Title   string
	Message string
	// RefundOnSuccess releases the slot when the final response status is
	// below 400, so only failed attempts count.
	RefundOnSuccess bool
}

type rateLimitStage struct {
	limiter Limiter
	rule    RateRule
	now     func() time.Time
}

// RateLimit enforces rule per client address using limiter. Limiter errors
// are logged and the request is admitted.
func RateLimit(limiter Limiter, rule RateRule) Stage {
	return &rateLimitStage{limiter: limiter, rule: rule, now: time.Now}
}

func (s *rateLimitStage) Name() string { return "rate_limit_" + s.rule.Scope }

func (s *rateLimitStage) key(c *gin.Context) string {
	return s.rule.Scope + ":" + c.ClientIP()
}

func (s *rateLimitStage) Admit(c *gin.Context) *Rejection {
	key := s.key(c)
	result, err := s.limiter.Allow(c.Request.Context(), key, s.rule.Requests, s.rule.Window)
	if err != nil {
		logger.GetLogger().Warnw("Rate limiter unavailable, admitting request",
			"scope", s.rule.Scope,
			"client_ip", c.ClientIP(),
			"error", err)
		return nil
	}

	resetAt := s.now().Add(result.ResetAfter)
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

	if result.Allowed {
		return nil
	}

	retryAfter := retryAfterSeconds(result.ResetAfter)
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	logger.GetLogger().Infow("Rate limit exceeded",
		"scope", s.rule.Scope,
		"client_ip", c.ClientIP(),
		"path", c.Request.URL.Path,
		"retry_after", retryAfter)

	rej := RejectError(s.rule.Title, apperrors.RateLimitExceeded(s.rule.Message, retryAfter))
	rej.Body["retryAfter"] = retryAfter
	return rej
}

// Finish refunds the slot for successful responses when the rule asks for
// it.
func (s *rateLimitStage) Finish(c *gin.Context) {
	if !s.rule.RefundOnSuccess || ResponseStatus(c) >= http.StatusBadRequest {
		return
	}
	// The request context may already be cancelled once the handler is done.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), time.Second)
	defer cancel()
	if err := s.limiter.Release(ctx, s.key(c)); err != nil {
		logger.GetLogger().Warnw("Failed to refund rate limit slot",
			"scope", s.rule.Scope,
			"client_ip", c.ClientIP(),
			"error", err)
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
