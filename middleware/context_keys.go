package middleware

// Gin context keys set by this package.
const (
	// RequestIDKey holds the request ID (string).
	RequestIDKey = "request_id"
)
