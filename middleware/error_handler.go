package middleware

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/errors"
	"github.com/sintudecorators/contact-backend/logger"
)

// ErrorHandler renders the last error pushed with c.Error as JSON. Internal
// detail is only included outside production, except for validation and
// not-found errors whose detail is meant for the client.
func ErrorHandler(cfg *config.ServerConfig) gin.HandlerFunc {
	production := cfg.Environment == config.EnvProduction

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		last := c.Errors.Last()
		err := last.Err
		log := logger.GetLogger().With(
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(RequestIDKey),
		)

		var appError *errors.AppError
		if !stderrors.As(err, &appError) {
			if last.Type == gin.ErrorTypeBind {
				appError = errors.ValidationFailed("Invalid request payload", err.Error())
			} else {
				appError = errors.Wrap(err, errors.ServerError, "Internal server error")
			}
		}

		status := appError.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			log.Errorw("Request failed", "status", status, "error", err)
		} else {
			log.Infow("Request rejected", "status", status, "error_type", appError.Type, "message", appError.Message)
		}

		if c.Writer.Written() {
			return
		}

		response := gin.H{
			"success": false,
			"error":   appError.Message,
			"type":    string(appError.Type),
			"code":    strconv.Itoa(status),
		}
		if appError.Detail != "" && (!production ||
			appError.Type == errors.ValidationError ||
			appError.Type == errors.NotFoundError) {
			response["details"] = appError.Detail
		}

		c.AbortWithStatusJSON(status, response)
	}
}

// Recovery turns panics into a 500 JSON body and logs the recovered value.
func Recovery(cfg *config.ServerConfig) gin.HandlerFunc {
	production := cfg.Environment == config.EnvProduction

	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.GetLogger().Errorw("Recovered from panic",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", c.GetString(RequestIDKey),
			"panic", recovered)

		message := "An unexpected error occurred. Please try again later."
		if !production {
			if e, ok := recovered.(error); ok {
				message = e.Error()
			} else if s, ok := recovered.(string); ok {
				message = s
			}
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": message,
		})
	})
}
