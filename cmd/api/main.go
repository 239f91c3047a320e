package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dental-clinic-platform/internal/api/router"
	"github.com/wolfman30/dental-clinic-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/dental-clinic-platform/internal/config"
	httpmiddleware "github.com/wolfman30/dental-clinic-platform/internal/http/middleware"
	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dental-clinic API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry, metricsHandler := setupMetrics()
	runtime, err := bootstrap.BuildReminderRuntime(cfg, pool, redisClient, registry, logger)
	if err != nil {
		logger.Error("failed to wire reminders", "error", err)
		os.Exit(1)
	}
	if cfg.RemindersEnabled {
		if err := runtime.Scheduler.Start(ctx); err != nil {
			logger.Error("failed to start reminder scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("reminder scheduler disabled; manual runs only")
	}

	limiter := manualRunLimiter(cfg)
	if limiter != nil {
		go limiter.RunEviction(ctx, 5*time.Minute)
	}
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; operator endpoints are not mounted")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		RemindersHandler:   runtime.Handler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ManualRunLimiter:   limiter,
		HealthChecks:       healthChecks(pool, redisClient),
	})

	// A manual run sends one SMS per appointment with a pause in between,
	// so the write timeout is longer than a typical API's.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	runtime.Scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	cancel()

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics returns a private registry carrying the runtime collectors and
// the handler serving it.
func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func manualRunLimiter(cfg *appconfig.Config) *httpmiddleware.RateLimiter {
	if cfg.ManualRunPerMinute <= 0 {
		return nil
	}
	return httpmiddleware.NewRateLimiter(float64(cfg.ManualRunPerMinute)/60, cfg.ManualRunPerMinute)
}

func healthChecks(db router.Pinger, redisClient *redis.Client) map[string]router.Pinger {
	checks := map[string]router.Pinger{}
	if db != nil {
		checks["database"] = db
	}
	if redisClient != nil {
		checks["redis"] = router.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	return checks
}
