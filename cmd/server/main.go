// Package main is the entry point for the opserp API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"opserp/internal/domain/access"
	"opserp/internal/domain/procurement"
	"opserp/internal/domain/stock"
	v1 "opserp/internal/infrastructure/http/v1"
	"opserp/internal/infrastructure/http/v1/handlers"
	"opserp/internal/infrastructure/metrics"
	"opserp/internal/infrastructure/numerator"
	"opserp/internal/infrastructure/storage/postgres"
	"opserp/internal/infrastructure/storage/postgres/access_repo"
	"opserp/internal/infrastructure/storage/postgres/procurement_repo"
	"opserp/internal/infrastructure/storage/postgres/stock_repo"
	"opserp/pkg/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting opserp server", "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Metrics ---
	m := metrics.New()
	m.RegisterPool(pool)

	// --- Infrastructure services ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}
	publisher := m.CountTransitions(postgres.NewOutboxPublisher(txManager))

	// --- Domain services ---
	ledger := stock.NewLedger(stock_repo.New(txManager), txManager)
	requests := procurement.NewService(
		procurement_repo.New(txManager),
		ledger,
		publisher,
		auditService,
		txManager,
		procurement.WithNumerator(numerator.New(txManager)),
	)
	registry := access.NewRegistry(access_repo.New(txManager), txManager)
	tokens := access.NewTokenService(access.DefaultTokenConfig(mustEnv("JWT_SECRET")))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:             log,
		TokenValidator:     tokens,
		CapabilityResolver: registry,
		Requests:           requests,
		Stock:              ledger,
		Registry:           registry,
		History:            auditService,
		Health:             handlers.NewHealthHandler(pool, pool.Stats, version),
		Metrics:            m,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	pool.LogStats(shutdownCtx)
	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
