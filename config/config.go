// Package config loads and validates application configuration from the
// environment (and an optional .env file) using viper.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Environment represents the application's running environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minTokenSecretLength = 32
)

// Mail transports understood by services.NewMailer.
const (
	MailTransportSMTP   = "smtp"
	MailTransportResend = "resend"
	MailTransportSES    = "ses"
	MailTransportLog    = "log"
)

// Rate limiter storage backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT"`
	Port           string      `mapstructure:"PORT"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS"`
	// TrustedProxies lists proxy IPs/CIDRs whose X-Forwarded-For is honored.
	// Empty means the socket peer address is always used.
	TrustedProxies  []string      `mapstructure:"TRUSTED_PROXIES"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig holds the PostgreSQL connection string and pool limits.
type DatabaseConfig struct {
	URL               string        `mapstructure:"URL"`
	MaxConns          int           `mapstructure:"MAX_CONNS"`
	IdleTimeout       time.Duration `mapstructure:"IDLE_TIMEOUT"`
	ConnectTimeout    time.Duration `mapstructure:"CONNECT_TIMEOUT"`
	KeepAliveInterval time.Duration `mapstructure:"KEEP_ALIVE_INTERVAL"`
	RunMigrations     bool          `mapstructure:"RUN_MIGRATIONS"`
}

// RedisConfig holds Redis connection details. Only used when the rate
// limiter backend is redis.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS"`
	Password     string `mapstructure:"PASSWORD"`
	DB           int    `mapstructure:"DB"`
	UseTLS       bool   `mapstructure:"USE_TLS"`
	PoolSize     int    `mapstructure:"POOL_SIZE"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS"`
}

// AdminConfig holds the single admin credential pair and token settings.
type AdminConfig struct {
	Username    string        `mapstructure:"USERNAME"`
	Password    string        `mapstructure:"PASSWORD"`
	TokenSecret string        `mapstructure:"TOKEN_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
	TokenIssuer string        `mapstructure:"TOKEN_ISSUER"`
}

// EmailConfig selects the outbound mail transport and its credentials.
type EmailConfig struct {
	Transport    string `mapstructure:"TRANSPORT"`
	FromAddress  string `mapstructure:"FROM_ADDRESS"`
	FromName     string `mapstructure:"FROM_NAME"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	AWSRegion    string `mapstructure:"AWS_REGION"`
	AWSAccessKey string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
}

// LimitRule is a fixed-window ceiling.
type LimitRule struct {
	Requests int           `mapstructure:"REQUESTS"`
	Window   time.Duration `mapstructure:"WINDOW"`
}

// RateLimitConfig holds the three limiter instances and their backend.
type RateLimitConfig struct {
	Backend string    `mapstructure:"BACKEND"`
	API     LimitRule `mapstructure:"API"`
	Contact LimitRule `mapstructure:"CONTACT"`
	Login   LimitRule `mapstructure:"LOGIN"`
	// Capacity bounds the number of client keys held by the memory backend.
	Capacity int `mapstructure:"CAPACITY"`
}

// SecurityConfig holds admission pipeline settings.
type SecurityConfig struct {
	InjectionFilter         bool          `mapstructure:"INJECTION_FILTER"`
	MaxBodyBytes            int64         `mapstructure:"MAX_BODY_BYTES"`
	MaxResponseDelay        time.Duration `mapstructure:"MAX_RESPONSE_DELAY"`
	ReputationBurst         int           `mapstructure:"REPUTATION_BURST"`
	ReputationWindow        time.Duration `mapstructure:"REPUTATION_WINDOW"`
	ReputationHorizon       time.Duration `mapstructure:"REPUTATION_HORIZON"`
	ReputationSweepInterval time.Duration `mapstructure:"REPUTATION_SWEEP_INTERVAL"`
	ReputationCapacity      int           `mapstructure:"REPUTATION_CAPACITY"`
	ReputationBlockedCap    int           `mapstructure:"REPUTATION_BLOCKED_CAPACITY"`
	HoneypotFields          []string      `mapstructure:"HONEYPOT_FIELDS"`
}

// WorkerPoolConfig sizes the notification worker pool.
type WorkerPoolConfig struct {
	MaxWorkers      int           `mapstructure:"MAX_WORKERS"`
	QueueSize       int           `mapstructure:"QUEUE_SIZE"`
	JobTimeout      time.Duration `mapstructure:"JOB_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Config aggregates all configuration sections.
type Config struct {
	Server     ServerConfig     `mapstructure:"SERVER"`
	Database   DatabaseConfig   `mapstructure:"DATABASE"`
	Redis      RedisConfig      `mapstructure:"REDIS"`
	Admin      AdminConfig      `mapstructure:"ADMIN"`
	Email      EmailConfig      `mapstructure:"EMAIL"`
	RateLimit  RateLimitConfig  `mapstructure:"RATE_LIMIT"`
	Security   SecurityConfig   `mapstructure:"SECURITY"`
	WorkerPool WorkerPoolConfig `mapstructure:"WORKER_POOL"`
}

// IsDevelopment returns true if the application is running in development.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "5174")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("SERVER.SHUTDOWN_TIMEOUT", 15*time.Second)

	v.SetDefault("DATABASE.MAX_CONNS", 5)
	v.SetDefault("DATABASE.IDLE_TIMEOUT", 30*time.Second)
	v.SetDefault("DATABASE.CONNECT_TIMEOUT", 8*time.Second)
	v.SetDefault("DATABASE.KEEP_ALIVE_INTERVAL", 45*time.Second)
	v.SetDefault("DATABASE.RUN_MIGRATIONS", true)

	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 3)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)

	v.SetDefault("ADMIN.TOKEN_TTL", 12*time.Hour)
	v.SetDefault("ADMIN.TOKEN_ISSUER", "sintu-decorators-admin")

	v.SetDefault("EMAIL.TRANSPORT", MailTransportSMTP)
	v.SetDefault("EMAIL.FROM_NAME", "Sintu Decorators")
	v.SetDefault("EMAIL.SMTP_HOST", "smtp-relay.brevo.com")
	v.SetDefault("EMAIL.SMTP_PORT", 587)

	v.SetDefault("RATE_LIMIT.BACKEND", RateLimitBackendMemory)
	v.SetDefault("RATE_LIMIT.API.REQUESTS", 100)
	v.SetDefault("RATE_LIMIT.API.WINDOW", 15*time.Minute)
	v.SetDefault("RATE_LIMIT.CONTACT.REQUESTS", 5)
	v.SetDefault("RATE_LIMIT.CONTACT.WINDOW", time.Hour)
	v.SetDefault("RATE_LIMIT.LOGIN.REQUESTS", 5)
	v.SetDefault("RATE_LIMIT.LOGIN.WINDOW", 15*time.Minute)
	v.SetDefault("RATE_LIMIT.CAPACITY", 10000)

	v.SetDefault("SECURITY.INJECTION_FILTER", true)
	v.SetDefault("SECURITY.MAX_BODY_BYTES", int64(1<<20))
	v.SetDefault("SECURITY.MAX_RESPONSE_DELAY", 100*time.Millisecond)
	v.SetDefault("SECURITY.REPUTATION_BURST", 50)
	v.SetDefault("SECURITY.REPUTATION_WINDOW", time.Minute)
	v.SetDefault("SECURITY.REPUTATION_HORIZON", time.Hour)
	v.SetDefault("SECURITY.REPUTATION_SWEEP_INTERVAL", time.Hour)
	v.SetDefault("SECURITY.REPUTATION_CAPACITY", 10000)
	v.SetDefault("SECURITY.REPUTATION_BLOCKED_CAPACITY", 10000)
	v.SetDefault("SECURITY.HONEYPOT_FIELDS", []string{"website", "url", "homepage", "captcha", "bot_field"})

	v.SetDefault("WORKER_POOL.MAX_WORKERS", 2)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 100)
	v.SetDefault("WORKER_POOL.JOB_TIMEOUT", 30*time.Second)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT", 30*time.Second)
}

var envBindings = [][2]string{
	{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
	{"SERVER.PORT", "PORT"},
	{"SERVER.ALLOWED_ORIGINS", "CORS_ORIGIN"},
	{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
	{"SERVER.SHUTDOWN_TIMEOUT", "SHUTDOWN_TIMEOUT"},

	{"DATABASE.URL", "DATABASE_URL"},
	{"DATABASE.MAX_CONNS", "DB_MAX_CONNS"},
	{"DATABASE.IDLE_TIMEOUT", "DB_IDLE_TIMEOUT"},
	{"DATABASE.CONNECT_TIMEOUT", "DB_CONNECT_TIMEOUT"},
	{"DATABASE.KEEP_ALIVE_INTERVAL", "DB_KEEP_ALIVE_INTERVAL"},
	{"DATABASE.RUN_MIGRATIONS", "DB_RUN_MIGRATIONS"},

	{"REDIS.ADDRESS", "REDIS_ADDRESS"},
	{"REDIS.PASSWORD", "REDIS_PASSWORD"},
	{"REDIS.DB", "REDIS_DB"},
	{"REDIS.USE_TLS", "REDIS_USE_TLS"},

	{"ADMIN.USERNAME", "ADMIN_USERNAME"},
	{"ADMIN.PASSWORD", "ADMIN_PASSWORD"},
	{"ADMIN.TOKEN_SECRET", "ADMIN_TOKEN_SECRET"},
	{"ADMIN.TOKEN_TTL", "ADMIN_TOKEN_TTL"},

	{"EMAIL.TRANSPORT", "MAIL_TRANSPORT"},
	{"EMAIL.FROM_ADDRESS", "EMAIL_FROM"},
	{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
	{"EMAIL.SMTP_HOST", "SMTP_HOST"},
	{"EMAIL.SMTP_PORT", "SMTP_PORT"},
	{"EMAIL.SMTP_USER", "SMTP_USER"},
	{"EMAIL.SMTP_PASSWORD", "SMTP_KEY"},
	{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
	{"EMAIL.AWS_REGION", "AWS_REGION"},
	{"EMAIL.AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"},
	{"EMAIL.AWS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"},

	{"RATE_LIMIT.BACKEND", "RATE_LIMIT_BACKEND"},
	{"RATE_LIMIT.API.REQUESTS", "RATE_LIMIT_API_REQUESTS"},
	{"RATE_LIMIT.API.WINDOW", "RATE_LIMIT_API_WINDOW"},
	{"RATE_LIMIT.CONTACT.REQUESTS", "RATE_LIMIT_CONTACT_REQUESTS"},
	{"RATE_LIMIT.CONTACT.WINDOW", "RATE_LIMIT_CONTACT_WINDOW"},
	{"RATE_LIMIT.LOGIN.REQUESTS", "RATE_LIMIT_LOGIN_REQUESTS"},
	{"RATE_LIMIT.LOGIN.WINDOW", "RATE_LIMIT_LOGIN_WINDOW"},
	{"RATE_LIMIT.CAPACITY", "RATE_LIMIT_CAPACITY"},

	{"SECURITY.INJECTION_FILTER", "SECURITY_INJECTION_FILTER"},
	{"SECURITY.MAX_BODY_BYTES", "SECURITY_MAX_BODY_BYTES"},
	{"SECURITY.MAX_RESPONSE_DELAY", "SECURITY_MAX_RESPONSE_DELAY"},
	{"SECURITY.REPUTATION_BURST", "SECURITY_REPUTATION_BURST"},
	{"SECURITY.REPUTATION_WINDOW", "SECURITY_REPUTATION_WINDOW"},
	{"SECURITY.REPUTATION_HORIZON", "SECURITY_REPUTATION_HORIZON"},
	{"SECURITY.REPUTATION_SWEEP_INTERVAL", "SECURITY_REPUTATION_SWEEP_INTERVAL"},
	{"SECURITY.REPUTATION_CAPACITY", "SECURITY_REPUTATION_CAPACITY"},
	{"SECURITY.REPUTATION_BLOCKED_CAPACITY", "SECURITY_REPUTATION_BLOCKED_CAPACITY"},
	{"SECURITY.HONEYPOT_FIELDS", "SECURITY_HONEYPOT_FIELDS"},

	{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
	{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
	{"WORKER_POOL.JOB_TIMEOUT", "WORKER_POOL_JOB_TIMEOUT"},
	{"WORKER_POOL.SHUTDOWN_TIMEOUT", "WORKER_POOL_SHUTDOWN_TIMEOUT"},
}

// LoadEnvFile copies variables from the given files (default .env) into the
// process environment without overriding ones already set. It does not log,
// so it can run before the logger exists.
func LoadEnvFile(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// LoadConfig reads .env (if present) and the process environment into a
// validated Config.
func LoadConfig() (*Config, error) {
	envErr := LoadEnvFile()
	log := logger.GetLogger()
	if envErr != nil {
		log.Debugw("No .env file loaded", "reason", envErr)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg, log); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Infow("Configuration loaded",
		"environment", cfg.Server.Environment,
		"server_port", cfg.Server.Port,
		"database", logger.MaskConnectionString(cfg.Database.URL),
		"allowed_origins", cfg.Server.AllowedOrigins,
		"trusted_proxies", cfg.Server.TrustedProxies,
		"mail_transport", cfg.Email.Transport,
		"rate_limit_backend", cfg.RateLimit.Backend,
		"injection_filter", cfg.Security.InjectionFilter)
	return &cfg, nil
}

func validateConfig(cfg *Config, log *zap.SugaredLogger) error {
	switch cfg.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", cfg.Server.Environment)
	}
	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}
	if cfg.Database.MaxConns <= 0 {
		return fmt.Errorf("database max connections must be positive")
	}
	if cfg.Database.KeepAliveInterval < 0 {
		return fmt.Errorf("database keep-alive interval must not be negative")
	}

	if err := validateAdminConfig(cfg, log); err != nil {
		return err
	}
	if err := validateEmailConfig(&cfg.Email, log); err != nil {
		return err
	}

	switch cfg.RateLimit.Backend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis address is required for the redis rate limit backend")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}
	for name, rule := range map[string]LimitRule{
		"api":     cfg.RateLimit.API,
		"contact": cfg.RateLimit.Contact,
		"login":   cfg.RateLimit.Login,
	} {
		if rule.Requests <= 0 || rule.Window <= 0 {
			return fmt.Errorf("rate limit %s must have positive requests and window", name)
		}
	}
	if cfg.RateLimit.Capacity <= 0 {
		return fmt.Errorf("rate limit capacity must be positive")
	}

	if cfg.Security.MaxBodyBytes <= 0 {
		return fmt.Errorf("security max body bytes must be positive")
	}
	if cfg.Security.ReputationBurst <= 0 || cfg.Security.ReputationWindow <= 0 {
		return fmt.Errorf("reputation burst and window must be positive")
	}
	if cfg.Security.ReputationCapacity <= 0 || cfg.Security.ReputationBlockedCap <= 0 {
		return fmt.Errorf("reputation capacities must be positive")
	}
	if cfg.Security.ReputationHorizon < cfg.Security.ReputationWindow {
		return fmt.Errorf("reputation horizon must not be shorter than the burst window")
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.JobTimeout <= 0 {
		return fmt.Errorf("worker pool job timeout must be positive")
	}
	return nil
}

func validateAdminConfig(cfg *Config, log *zap.SugaredLogger) error {
	admin := &cfg.Admin
	if admin.Username == "" || admin.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}
	if admin.TokenTTL <= 0 {
		return fmt.Errorf("admin token TTL must be positive")
	}
	if len(admin.TokenSecret) >= minTokenSecretLength {
		return nil
	}
	if cfg.IsProduction() {
		return fmt.Errorf("admin token secret must be at least %d characters long", minTokenSecretLength)
	}
	log.Warn("Admin token secret missing or short, using an ephemeral secret; tokens will not survive restarts")
	secret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("failed to generate admin token secret: %w", err)
	}
	admin.TokenSecret = secret
	return nil
}

// validateEmailConfig falls back to the log transport with a warning when
// the selected transport is missing credentials, so a misconfigured mailer
// never blocks startup.
func validateEmailConfig(cfg *EmailConfig, log *zap.SugaredLogger) error {
	var missing string
	switch cfg.Transport {
	case MailTransportLog:
		return nil
	case MailTransportSMTP:
		if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
			missing = "SMTP_HOST/SMTP_USER/SMTP_KEY"
		}
		if cfg.SMTPPort <= 0 {
			return fmt.Errorf("smtp port must be positive")
		}
	case MailTransportResend:
		if cfg.ResendAPIKey == "" {
			missing = "RESEND_API_KEY"
		}
	case MailTransportSES:
		if cfg.AWSRegion == "" {
			missing = "AWS_REGION"
		}
	default:
		return fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
	if missing == "" && cfg.FromAddress == "" {
		missing = "EMAIL_FROM"
	}
	if missing != "" {
		log.Warnw("Mail transport not fully configured, confirmation emails will only be logged",
			"transport", cfg.Transport, "missing", missing)
		cfg.Transport = MailTransportLog
	}
	return nil
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func randomSecret() (string, error) {
	buf := make([]byte, minTokenSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
