package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
	"go.uber.org/zap"
)

const (
	dbPingAttempts = 3
	dbPingBackoff  = 100 * time.Millisecond
)

// DatabasePinger is satisfied by *pgxpool.Pool.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	db          DatabasePinger
	redisClient *redis.Client
	mailer      string
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService builds the health reporter. redisClient is nil when the
// rate limiter runs in memory.
func NewHealthService(db DatabasePinger, redisClient *redis.Client, mailer, version string) *HealthService {
	return &HealthService{
		db:          db,
		redisClient: redisClient,
		mailer:      mailer,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger(),
	}
}

// Ping performs a single database round trip for the plain health route.
func (h *HealthService) Ping(ctx context.Context) error {
	return h.db.Ping(ctx)
}

func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := map[string]types.HealthComponent{
		types.ComponentDatabase:    h.checkDatabase(ctx),
		types.ComponentRateLimiter: h.checkRateLimiter(ctx),
		types.ComponentMailer:      h.checkMailer(),
	}

	// The database is the only hard dependency; a lost rate limiter store
	// fails open and so only degrades the service.
	overallStatus := types.HealthStatusUp
	for name, comp := range components {
		switch {
		case comp.Status == types.HealthStatusDown && name == types.ComponentDatabase:
			overallStatus = types.HealthStatusDown
		case comp.Status != types.HealthStatusUp && overallStatus == types.HealthStatusUp:
			overallStatus = types.HealthStatusDegraded
		}
	}

	return types.HealthCheck{
		Status:     overallStatus,
		Components: components,
		Version:    h.version,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
}

func (h *HealthService) checkDatabase(ctx context.Context) types.HealthComponent {
	var err error
	for attempt := 1; attempt <= dbPingAttempts; attempt++ {
		if err = h.db.Ping(ctx); err == nil {
			return types.HealthComponent{Status: types.HealthStatusUp}
		}
		h.log.Warnw("Database health check failed",
			"error", err,
			"attempt", attempt,
			"max_attempts", dbPingAttempts)
		if attempt == dbPingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return types.HealthComponent{
				Status:  types.HealthStatusDown,
				Details: "Database connection failed",
			}
		case <-time.After(dbPingBackoff):
		}
	}

	h.log.Errorw("Database unreachable", "error", err)
	return types.HealthComponent{
		Status:  types.HealthStatusDown,
		Details: "Database connection failed after multiple attempts",
	}
}

func (h *HealthService) checkRateLimiter(ctx context.Context) types.HealthComponent {
	if h.redisClient == nil {
		return types.HealthComponent{
			Status:  types.HealthStatusUp,
			Details: "in-memory",
		}
	}
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDegraded,
			Details: "Redis connection failed, rate limits are not enforced",
		}
	}
	return types.HealthComponent{
		Status:  types.HealthStatusUp,
		Details: "redis",
	}
}

func (h *HealthService) checkMailer() types.HealthComponent {
	comp := types.HealthComponent{Status: types.HealthStatusUp, Details: h.mailer}
	if h.mailer == "log" {
		comp.Status = types.HealthStatusDegraded
		comp.Details = "confirmation emails are only logged"
	}
	return comp
}
