package admission

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sintudecorators/contact-backend/config"
)

// Route class names, used as the pipeline label in metrics and logs.
const (
	ClassPublic     = "public"
	ClassContact    = "contact"
	ClassAdminLogin = "admin_login"
	ClassAdminData  = "admin_data"
)

// Dependencies wires the stateful collaborators into the route classes.
type Dependencies struct {
	Security   config.SecurityConfig
	RateLimit  config.RateLimitConfig
	Production bool
	Limiter    Limiter
	Reputation Admitter
	Auth       Authenticator
	Metrics    *Metrics
}

// Pipelines holds one pipeline per route class.
type Pipelines struct {
	Public     *Pipeline
	Contact    *Pipeline
	AdminLogin *Pipeline
	AdminData  *Pipeline
}

// Build assembles the route classes. Every class starts with the public
// stages, so the ordering between shared checks is the same everywhere.
func Build(deps Dependencies) *Pipelines {
	sec := deps.Security

	var injection Stage
	if sec.InjectionFilter {
		injection = InjectionFilter(sec.MaxBodyBytes)
	}

	public := NewPipeline(ClassPublic, deps.Metrics,
		SecurityHeaders(deps.Production),
		BodyLimit(sec.MaxBodyBytes),
		Reputation(deps.Reputation),
		RateLimit(deps.Limiter, RateRule{
			Scope:    "api",
			Requests: deps.RateLimit.API.Requests,
			Window:   deps.RateLimit.API.Window,
			Title:    "Too many requests",
			Message:  "You have exceeded the rate limit. Please try again later.",
		}),
		injection,
	)

	contact := public.Extend(ClassContact,
		RateLimit(deps.Limiter, RateRule{
			Scope:    "contact",
			Requests: deps.RateLimit.Contact.Requests,
			Window:   deps.RateLimit.Contact.Window,
			Title:    "Rate limit exceeded",
			Message: fmt.Sprintf("You can only submit the contact form %d times per %s.",
				deps.RateLimit.Contact.Requests, describeWindow(deps.RateLimit.Contact.Window)),
		}),
		Honeypot(sec.HoneypotFields, sec.MaxBodyBytes),
		ContactValidation(sec.MaxBodyBytes),
	)

	adminLogin := public.Extend(ClassAdminLogin,
		RateLimit(deps.Limiter, RateRule{
			Scope:           "login",
			Requests:        deps.RateLimit.Login.Requests,
			Window:          deps.RateLimit.Login.Window,
			Title:           "Too many login attempts",
			Message:         "Account temporarily locked. Please try again later.",
			RefundOnSuccess: true,
		}),
		RandomDelay(sec.MaxResponseDelay),
	)

	return &Pipelines{
		Public:     public,
		Contact:    contact,
		AdminLogin: adminLogin,
		AdminData:  adminLogin.Extend(ClassAdminData, AdminToken(deps.Auth)),
	}
}

// describeWindow renders a window as "hour", "15 minutes" and so on.
func describeWindow(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return name
		}
		return strconv.FormatInt(n, 10) + " " + name + "s"
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}
