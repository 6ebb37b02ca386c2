package types

import "time"

// RateLimitResult is the outcome of counting one request against a
// fixed-window ceiling.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAfter is the time left until the current window closes.
	ResetAfter time.Duration
}
