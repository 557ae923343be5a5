// Package main is the entry point for the opserp background worker.
// It relays committed status-change events from the outbox to a Redis stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"opserp/internal/infrastructure/metrics"
	"opserp/internal/infrastructure/notify"
	"opserp/internal/infrastructure/storage/postgres"
	"opserp/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting opserp outbox worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	notifier, err := notify.Dial(ctx, mustEnv("REDIS_URL"), notify.WithStream(getEnv("EVENTS_STREAM", "")))
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer notifier.Close()

	m := metrics.New()
	m.RegisterPool(pool)

	txManager := postgres.NewTxManager(pool)
	relay := postgres.NewOutboxRelay(
		txManager,
		getEnvInt("OUTBOX_BATCH_SIZE", 100),
		m.CountDeliveries(notifier),
	)
	interval := getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := relay.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("outbox relay stopped", "error", err)
		}
	}()

	metricsServer := &http.Server{
		Addr:              ":" + getEnv("METRICS_PORT", "9090"),
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	log.Infow("worker started", "poll_interval", interval)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("worker stopped")
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
