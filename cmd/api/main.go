package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oakwellhealth/clinic-scheduler/internal/api/router"
	"github.com/oakwellhealth/clinic-scheduler/internal/availability"
	"github.com/oakwellhealth/clinic-scheduler/internal/booking"
	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/clinic"
	appconfig "github.com/oakwellhealth/clinic-scheduler/internal/config"
	"github.com/oakwellhealth/clinic-scheduler/internal/observability/metrics"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic_id", cfg.ClinicID,
	)

	ctx := context.Background()

	var store schedule.Store
	if cfg.UseMemoryCfg || cfg.DatabaseURL == "" {
		logger.Warn("running with in-memory scheduling config; mappings must be seeded by tests or dev tooling")
		store = schedule.NewMemoryStore()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		store = schedule.NewPostgresStore(pool)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to ping redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}
	settings := clinic.NewStore(redisClient, clinic.DefaultSettings(
		cfg.ClinicID, cfg.ClinicTimezone, cfg.SlotGranularityMin, cfg.DefaultDurationMin))

	googleGateway, err := calendar.NewGoogleGateway(ctx, cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile, logger)
	if err != nil {
		logger.Error("failed to create calendar gateway", "error", err)
		os.Exit(1)
	}
	gateway := calendar.WithTimeout(googleGateway, cfg.GatewayTimeout)

	schedulingMetrics := metrics.NewSchedulingMetrics(nil)

	resolver := availability.NewResolver(store, gateway, settings, cfg.ClinicID, schedulingMetrics, logger)
	bookingService := booking.NewService(store, gateway, settings, cfg.ClinicID, schedulingMetrics, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AvailabilityHandler: availability.NewHandler(resolver, logger),
		BookingHandler:      booking.NewHandler(bookingService, logger),
		MetricsHandler:      promhttp.Handler(),
		ServiceAuthSecret:   cfg.ServiceSecret,
		CORSAllowedOrigins:  cfg.AllowedCORS,
		RateLimitPerSec:     cfg.RateLimitPerSec,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
