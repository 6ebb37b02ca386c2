package admission

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/logger"
)

// Heuristic patterns for SQL injection attempts. Queries are always bound,
// this only turns away obviously hostile input early.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION|DECLARE)\b`),
	regexp.MustCompile(`(?i)(--|;|/\*|\*/|xp_|sp_)`),
	regexp.MustCompile("('|\"|`|;|\\||&|\\$)"),
}

// ContainsInjection reports whether any string reachable from v matches an
// injection pattern. Maps and slices are walked recursively.
func ContainsInjection(v any) bool {
	switch val := v.(type) {
	case string:
		for _, p := range injectionPatterns {
			if p.MatchString(val) {
				return true
			}
		}
	case map[string]any:
		for _, item := range val {
			if ContainsInjection(item) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if ContainsInjection(item) {
				return true
			}
		}
	case []string:
		for _, item := range val {
			if ContainsInjection(item) {
				return true
			}
		}
	}
	return false
}

type injectionFilter struct {
	limit int64
}

// InjectionFilter rejects requests whose JSON body, query string or path
// parameters contain a suspicious string value.
func InjectionFilter(bodyLimit int64) Stage {
	return &injectionFilter{limit: bodyLimit}
}

func (f *injectionFilter) Name() string { return "injection_filter" }

func (f *injectionFilter) Admit(c *gin.Context) *Rejection {
	body, err := jsonObject(c)
	if err != nil {
		return bodyRejection(err, f.limit)
	}

	suspicious := ContainsInjection(body)
	if !suspicious {
		for _, values := range c.Request.URL.Query() {
			if ContainsInjection(values) {
				suspicious = true
				break
			}
		}
	}
	if !suspicious {
		for _, p := range c.Params {
			if ContainsInjection(p.Value) {
				suspicious = true
				break
			}
		}
	}

	if suspicious {
		logger.GetLogger().Warnw("Potential SQL injection attempt",
			"client_ip", c.ClientIP(),
			"path", c.Request.URL.Path)
		return Reject(http.StatusBadRequest, "Invalid input", "Request contains invalid characters.")
	}
	return nil
}
