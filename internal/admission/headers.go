package admission

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/sintudecorators/contact-backend/errors"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data:; " +
	"connect-src 'self' https:; " +
	"frame-ancestors 'none';"

// SecurityHeaders sets the hardening headers on every response. HSTS is
// only sent in production so local HTTP development keeps working.
func SecurityHeaders(production bool) Stage {
	return NewStage("security_headers", func(c *gin.Context) *Rejection {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		if production {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		return nil
	})
}

// BodyLimit rejects requests that declare a body larger than limit bytes
// and caps the body reader for those that do not declare a length.
func BodyLimit(limit int64) Stage {
	return NewStage("body_limit", func(c *gin.Context) *Rejection {
		if c.Request.ContentLength > limit {
			return payloadTooLarge(limit)
		}
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		return nil
	})
}

func payloadTooLarge(limit int64) *Rejection {
	return RejectError("Payload too large",
		apperrors.PayloadTooLarge("Request body must not exceed "+humanBytes(limit)+".", limit))
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	const kib = 1 << 10
	switch {
	case n >= mib && n%mib == 0:
		return strconv.FormatInt(n/mib, 10) + "MB"
	case n >= kib && n%kib == 0:
		return strconv.FormatInt(n/kib, 10) + "KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}
