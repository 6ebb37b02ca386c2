package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sintudecorators/contact-backend/config"
	"github.com/sintudecorators/contact-backend/handlers"
	"github.com/sintudecorators/contact-backend/internal/admission"
	"github.com/sintudecorators/contact-backend/logger"
	"github.com/sintudecorators/contact-backend/middleware"
)

// Dependencies holds everything needed to mount the routes.
type Dependencies struct {
	Config         *config.Config
	Pipelines      *admission.Pipelines
	ContactHandler *handlers.ContactHandler
	AdminHandler   *handlers.AdminHandler
	HealthHandler  *handlers.HealthHandler
	// MetricsHandler serves /metrics. Defaults to the global Prometheus
	// registry.
	MetricsHandler http.Handler
}

// SetupRouter configures the gin engine. Every API route runs the
// admission pipeline of its route class before the handler.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	serverCfg := &deps.Config.Server

	r := gin.New()
	if err := r.SetTrustedProxies(serverCfg.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(middleware.Recovery(serverCfg))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(serverCfg))
	r.Use(middleware.ErrorHandler(serverCfg))

	metrics := deps.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metrics))
	r.GET("/healthz", deps.HealthHandler.LivenessCheck)

	p := deps.Pipelines
	api := r.Group("/api")
	{
		api.GET("/health", p.Public.Handler(), deps.HealthHandler.BasicHealth)
		api.GET("/health/detailed", p.Public.Handler(), deps.HealthHandler.DetailedHealth)

		api.POST("/contact", p.Contact.Handler(), deps.ContactHandler.SubmitContactHandler)

		admin := api.Group("/admin")
		{
			admin.POST("/login", p.AdminLogin.Handler(), deps.AdminHandler.LoginHandler)

			data := admin.Group("/submissions", p.AdminData.Handler())
			{
				data.GET("", deps.AdminHandler.ListSubmissionsHandler)
				data.DELETE("/:id", deps.AdminHandler.DeleteSubmissionHandler)
			}
		}
	}

	r.NoRoute(p.Public.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Not found",
			"message": "The requested resource does not exist.",
		})
	})

	logger.GetLogger().Infow("Routes configured",
		"public", p.Public.StageNames(),
		"contact", p.Contact.StageNames(),
		"admin_login", p.AdminLogin.StageNames(),
		"admin_data", p.AdminData.StageNames())

	return r, nil
}
