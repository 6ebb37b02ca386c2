package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/db"
	"github.com/sintudecorators/contact-backend/handlers"
	"github.com/sintudecorators/contact-backend/internal/admission"
	"github.com/sintudecorators/contact-backend/internal/store/postgres"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/router"
	"github.com/sintudecorators/contact-backend/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// ENVIRONMENT may come from .env and selects the log encoder.
	_ = config.LoadEnvFile()
	logger.InitLogger()
	log := logger.GetLogger()
	defer func() { _ = logger.Close() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(cfg.Database.URL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}
	poolConfig, err := config.ConfigurePostgresPool(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to configure database pool: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	submissionStore := postgres.NewSubmissionStore(pool)
	keepAlive := services.NewKeepAliveService(submissionStore, cfg.Database.KeepAliveInterval)
	keepAlive.WarmUp(ctx)
	go keepAlive.Run(ctx)

	// Rate limiting
	var (
		limiter     admission.Limiter
		redisClient *redis.Client
	)
	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		redisClient = redis.NewClient(config.ConfigureRedisOptions(&cfg.Redis))
		defer func() { _ = redisClient.Close() }()
		if err := config.TestRedisConnection(ctx, redisClient); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		limiter = services.NewRedisRateLimiter(redisClient)
	default:
		memoryLimiter, err := services.NewMemoryRateLimiter(cfg.RateLimit.Capacity)
		if err != nil {
			log.Fatalf("Failed to create rate limiter: %v", err)
		}
		limiter = memoryLimiter
	}

	tracker, err := admission.NewReputationTracker(admission.ReputationConfig{
		Burst:           cfg.Security.ReputationBurst,
		Window:          cfg.Security.ReputationWindow,
		Horizon:         cfg.Security.ReputationHorizon,
		Capacity:        cfg.Security.ReputationCapacity,
		BlockedCapacity: cfg.Security.ReputationBlockedCap,
	})
	if err != nil {
		log.Fatalf("Failed to create reputation tracker: %v", err)
	}
	go tracker.Run(ctx, cfg.Security.ReputationSweepInterval)

	// Notifications
	mailer, err := services.NewMailer(ctx, &cfg.Email)
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}
	workerPool := services.NewWorkerPool(cfg.WorkerPool, prometheus.DefaultRegisterer)
	workerPool.Start()
	notifications := services.NewNotificationService(mailer, workerPool)

	// HTTP
	adminAuth := services.NewAdminAuthService(&cfg.Admin)
	pipelines := admission.Build(admission.Dependencies{
		Security:   cfg.Security,
		RateLimit:  cfg.RateLimit,
		Production: cfg.Server.Environment == config.EnvProduction,
		Limiter:    limiter,
		Reputation: tracker,
		Auth:       adminAuth,
		Metrics:    admission.NewMetrics(prometheus.DefaultRegisterer),
	})
	healthService := services.NewHealthService(pool, redisClient, mailer.Name(), version)

	engine, err := router.SetupRouter(router.Dependencies{
		Config:         cfg,
		Pipelines:      pipelines,
		ContactHandler: handlers.NewContactHandler(submissionStore, notifications),
		AdminHandler:   handlers.NewAdminHandler(adminAuth, submissionStore),
		HealthHandler:  handlers.NewHealthHandler(healthService),
	})
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Server.Environment,
			"version", version,
			"mailer", notifications.MailerName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		log.Errorw("Server failed", "error", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}

	poolCtx, cancelPool := context.WithTimeout(context.Background(), cfg.WorkerPool.ShutdownTimeout)
	defer cancelPool()
	if err := workerPool.Shutdown(poolCtx); err != nil {
		log.Warnw("Notification queue not drained before shutdown", "error", err)
	}

	log.Info("Server stopped")
}
