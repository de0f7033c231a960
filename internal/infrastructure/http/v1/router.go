// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workdeck/internal/domain/cascade"
	"workdeck/internal/domain/purge"
	"workdeck/internal/infrastructure/http/v1/handlers"
	"workdeck/internal/infrastructure/http/v1/middleware"
	"workdeck/internal/infrastructure/storage/postgres"
	"workdeck/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator resolves bearer tokens to acting principals
	TokenValidator middleware.TokenValidator

	// Cascade runs the lifecycle operations
	Cascade *cascade.Service

	// Scheduler is the purge scheduler under /sweeper control
	Scheduler *purge.Scheduler

	// MetricsRegistry serves /metrics when set
	MetricsRegistry *prometheus.Registry
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Prometheus scrape endpoint (no auth required)
	if cfg.MetricsRegistry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			cfg.MetricsRegistry,
			promhttp.HandlerOpts{Registry: cfg.MetricsRegistry},
		)))
	}

	// API v1 - every operation here mutates, so the whole group is
	// behind actor extraction.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor(cfg.TokenValidator))
	{
		baseHandler := handlers.NewBaseHandler()

		recordsHandler := handlers.NewRecordsHandler(baseHandler, cfg.Cascade)
		records := v1.Group("/records")
		{
			records.POST("/:kind/:id/delete", recordsHandler.Delete)
			records.POST("/:kind/:id/restore", recordsHandler.Restore)
		}

		if cfg.Scheduler != nil {
			sweeperHandler := handlers.NewSweeperHandler(baseHandler, cfg.Scheduler)
			sweeper := v1.Group("/sweeper")
			sweeper.Use(middleware.RequireElevated())
			{
				sweeper.GET("", sweeperHandler.Status)
				sweeper.POST("/run", sweeperHandler.Run)
				sweeper.POST("/start", sweeperHandler.Start)
				sweeper.POST("/stop", sweeperHandler.Stop)
			}
		}
	}

	return router
}
