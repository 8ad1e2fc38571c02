// Package main provides the entrypoint for the bookdrop email worker.
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

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/database"
	"github.com/bookdrop/bookdrop/internal/event"
	"github.com/bookdrop/bookdrop/internal/mailer"
	"github.com/bookdrop/bookdrop/internal/mailing"
	"github.com/bookdrop/bookdrop/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "bookdrop-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting bookdrop worker")

	// The worker also serves /health so the platform can probe it.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Connect to the event bus (the worker publishes email.sent audit events)
	notifier, err := event.NewPubSubNotifier(ctx, event.PubSubConfigFromEnv(log))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event notifier")
	}
	defer func() {
		if closeErr := notifier.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close event notifier")
		}
	}()

	mailingService := mailing.NewService(mailing.ServiceConfig{
		Repository: mailing.NewPostgresRepository(pool),
		Notifier:   notifier,
		Logger:     log,
	})

	smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfigFromEnv(), log)

	cfg := worker.ConfigFromEnv()
	cfg.Mailing = mailingService
	cfg.Mailer = smtpMailer
	cfg.Notifier = notifier
	cfg.Logger = log

	handler, err := worker.NewHandler(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event handler")
	}
	defer func() {
		if closeErr := handler.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close event handler")
		}
	}()

	// Health check server
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","version":%q}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Receive until shutdown, reconnecting with exponential backoff when the
	// subscription stream drops.
	go func() {
		policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

		err := backoff.RetryNotify(
			func() error {
				if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			},
			policy,
			func(err error, wait time.Duration) {
				log.Warn().
					Err(err).
					Dur("retry_in", wait).
					Msg("subscription stream dropped, reconnecting")
			},
		)
		if err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("event handler failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
