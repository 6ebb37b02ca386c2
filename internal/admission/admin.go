package admission

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/logger"
)

// AdminUserKey is the context key holding the authenticated admin username.
const AdminUserKey = "admission.admin_user"

// Authenticator verifies an admin token and returns the username it was
// issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AdminToken requires a valid admin token in the Authorization header. Both
// the Bearer and Basic schemes carry the same token.
func AdminToken(auth Authenticator) Stage {
	return NewStage("admin_token", func(c *gin.Context) *Rejection {
		token, ok := bearerOrBasic(c.GetHeader("Authorization"))
		if !ok {
			return Reject(http.StatusUnauthorized, "Unauthorized", "Authentication required.")
		}

		username, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.GetLogger().Warnw("Admin token rejected",
				"client_ip", c.ClientIP(),
				"error", err)
			return Reject(http.StatusUnauthorized, "Unauthorized", "Invalid credentials.")
		}
		c.Set(AdminUserKey, username)
		return nil
	})
}

func bearerOrBasic(header string) (string, bool) {
	for _, scheme := range []string{"Bearer ", "Basic "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			token := strings.TrimSpace(header[len(scheme):])
			return token, token != ""
		}
	}
	return "", false
}
