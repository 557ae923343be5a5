// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opserp/internal/infrastructure/http/v1/handlers"
	"opserp/internal/infrastructure/http/v1/middleware"
	"opserp/internal/infrastructure/metrics"
	"opserp/pkg/logger"
)

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Auth resolves bearer tokens into capabilities
	TokenValidator     middleware.TokenValidator
	CapabilityResolver middleware.CapabilityResolver

	Requests handlers.RequestService
	Stock    handlers.StockLedger
	Registry handlers.Registry

	// History serves the audit log of a request; optional
	History handlers.HistoryReader

	// Health probes the database
	Health *handlers.HealthHandler

	// Metrics, when set, instruments requests and serves /metrics
	Metrics *metrics.Metrics
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "route not found"})
	})

	if cfg.Health != nil {
		health := router.Group("/health")
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
		health.GET("/info", cfg.Health.Info)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.TokenValidator, cfg.CapabilityResolver))

	base := handlers.NewBaseHandler()
	registerRequestRoutes(v1, handlers.NewRequestHandler(base, cfg.Requests, cfg.History))
	registerStockRoutes(v1, handlers.NewStockHandler(base, cfg.Stock))
	registerAccessRoutes(v1, handlers.NewAccessHandler(base, cfg.Registry))

	return router
}
