// Package main provides the entrypoint for the bookdrop API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/api"
	"github.com/bookdrop/bookdrop/internal/api/middleware"
	"github.com/bookdrop/bookdrop/internal/database"
	"github.com/bookdrop/bookdrop/internal/download"
	"github.com/bookdrop/bookdrop/internal/event"
	"github.com/bookdrop/bookdrop/internal/mailing"
	"github.com/bookdrop/bookdrop/internal/signer"
	"github.com/bookdrop/bookdrop/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "bookdrop-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting bookdrop API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Connect to the event bus
	notifier, err := event.NewPubSubNotifier(ctx, event.PubSubConfigFromEnv(log))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event notifier")
	}
	defer func() {
		if closeErr := notifier.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close event notifier")
		}
	}()
	log.Info().Msg("event notifier initialized")

	// Initialize the signed-link issuer
	issuer, err := signer.NewGCSIssuer(ctx, signer.GCSConfigFromEnv())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create signed-link issuer")
	}
	defer func() {
		if closeErr := issuer.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close signed-link issuer")
		}
	}()
	log.Info().Msg("signed-link issuer initialized")

	// Initialize download repository and service
	downloadRepo := download.NewPostgresRepository(pool)
	downloadService := download.NewService(download.ServiceConfig{
		Repository: downloadRepo,
		Issuer:     issuer,
		Notifier:   notifier,
		Config:     download.ConfigFromEnv(),
		Logger:     log,
	})
	log.Info().Msg("download service initialized")

	// Initialize mailing repository and service
	mailingRepo := mailing.NewPostgresRepository(pool)
	mailingService := mailing.NewService(mailing.ServiceConfig{
		Repository: mailingRepo,
		Notifier:   notifier,
		Logger:     log,
	})
	log.Info().Msg("mailing service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		DownloadService: downloadService,
		MailingService:  mailingService,
		DB:              pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
