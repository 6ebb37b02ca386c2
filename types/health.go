package types

// HealthStatus is the state of one dependency in a detailed health report.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDown     HealthStatus = "DOWN"
	HealthStatusDegraded HealthStatus = "DEGRADED"
)

// Component names used in HealthCheck.Components.
const (
	ComponentDatabase    = "database"
	ComponentRateLimiter = "rate_limiter"
	ComponentMailer      = "mailer"
)

type HealthComponent struct {
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// HealthCheck is the body of GET /api/health/detailed.
type HealthCheck struct {
	Status     HealthStatus               `json:"status"`
	Components map[string]HealthComponent `json:"components"`
	Version    string                     `json:"version"`
	Timestamp  string                     `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
}

// HealthStatusResponse is the body of GET /api/health: "ok" or "error".
type HealthStatusResponse struct {
	Status string `json:"status"`
}
