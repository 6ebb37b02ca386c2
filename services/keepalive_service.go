package services

import (
	"context"
	"strings"
	"time"

	"github.com/sintudecorators/contact-backend/logger"
	"go.uber.org/zap"
)

const keepAliveTimeout = 5 * time.Second

// KeepAliveStore is the part of the submission store the keep-alive task
// needs.
type KeepAliveStore interface {
	KeepAlive(ctx context.Context) error
	GuestCountColumnType(ctx context.Context) (string, error)
}

// KeepAliveService keeps the database connection warm so that a serverless
// Postgres does not suspend between inquiries, and checks on startup that
// the schema matches what the store writes.
type KeepAliveService struct {
	store    KeepAliveStore
	interval time.Duration
	log      *zap.SugaredLogger
}

func NewKeepAliveService(store KeepAliveStore, interval time.Duration) *KeepAliveService {
	return &KeepAliveService{
		store:    store,
		interval: interval,
		log:      logger.GetLogger().Named("keep-alive"),
	}
}

// WarmUp runs one ping and the guest_count column check. Failures are
// logged only.
func (k *KeepAliveService) WarmUp(ctx context.Context) {
	start := time.Now()
	if err := k.ping(ctx); err != nil {
		k.log.Warnw("Warm-up ping failed", "error", err)
		return
	}
	k.log.Infow("Warm-up ping completed", "duration", time.Since(start))

	dataType, err := k.store.GuestCountColumnType(ctx)
	if err != nil {
		k.log.Warnw("Could not inspect guest_count column", "error", err)
		return
	}
	if dataType != "" && !strings.EqualFold(dataType, "text") {
		k.log.Warnw("guest_count column is not text; run: ALTER TABLE contact_submissions ALTER COLUMN guest_count TYPE TEXT USING guest_count::text",
			"data_type", dataType)
	}
}

// Run pings the database every interval until ctx is cancelled. A zero interval
// disables the task.
func (k *KeepAliveService) Run(ctx context.Context) {
	if k.interval <= 0 {
		k.log.Info("Database keep-alive disabled")
		return
	}
	k.log.Infow("Database keep-alive started", "interval", k.interval)

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			k.log.Debug("Database keep-alive stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if err := k.ping(ctx); err != nil {
				k.log.Warnw("Keep-alive failed", "error", err)
				continue
			}
			k.log.Debugw("Keep-alive OK", "duration", time.Since(start))
		}
	}
}

func (k *KeepAliveService) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, keepAliveTimeout)
	defer cancel()
	return k.store.KeepAlive(ctx)
}
