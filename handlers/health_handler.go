package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/types"
)

type HealthHandler struct {
	health HealthChecker
}

func NewHealthHandler(health HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

// BasicHealth answers the uptime check: "ok" when the database answers.
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		logger.GetLogger().Warnw("Health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, types.HealthStatusResponse{Status: "error"})
		return
	}
	c.JSON(http.StatusOK, types.HealthStatusResponse{Status: "ok"})
}

// DetailedHealth reports every dependency. Only a down database makes the
// service unavailable.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	health := h.health.CheckHealth(c.Request.Context())
	if health.Status == types.HealthStatusDown {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}

// LivenessCheck reports that the process is serving.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
