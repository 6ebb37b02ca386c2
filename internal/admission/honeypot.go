package admission

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/logger"
)

// Honeypot silently answers submissions that fill any of the hidden trap
// fields. The bot receives the same success body a real client would see,
// and nothing is stored.
func Honeypot(fields []string, bodyLimit int64) Stage {
	return NewStage("honeypot", func(c *gin.Context) *Rejection {
		body, err := jsonObject(c)
		if err != nil {
			return bodyRejection(err, bodyLimit)
		}
		for _, field := range fields {
			if truthy(body[field]) {
				logger.GetLogger().Infow("Honeypot field filled, discarding submission",
					"field", field,
					"client_ip", c.ClientIP())
				return &Rejection{
					Status: http.StatusOK,
					Body:   gin.H{"success": true, "message": "Form submitted successfully"},
				}
			}
		}
		return nil
	})
}

// truthy follows JavaScript truthiness for decoded JSON values: null,
// false, 0 and "" are falsy; objects and arrays are always truthy.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
