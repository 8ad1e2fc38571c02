package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/download"
	"github.com/bookdrop/bookdrop/internal/event"
	"github.com/bookdrop/bookdrop/internal/mailer"
	"github.com/bookdrop/bookdrop/internal/mailing"
)

// Handler consumes domain events from the Pub/Sub subscription.
type Handler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	mailing          *mailing.Service
	mailer           mailer.Mailer
	notifier         event.Notifier
	logger           zerolog.Logger
}

// Config holds configuration for the event handler.
type Config struct {
	ProjectID        string
	SubscriptionName string
	Mailing          *mailing.Service
	Mailer           mailer.Mailer
	Notifier         event.Notifier
	Logger           zerolog.Logger
}

// ConfigFromEnv fills the connection part of a Config from environment
// variables.
func ConfigFromEnv() Config {
	sub := os.Getenv("PUBSUB_SUBSCRIPTION")
	if sub == "" {
		sub = "email-service"
	}
	return Config{
		ProjectID:        os.Getenv("PUBSUB_PROJECT_ID"),
		SubscriptionName: sub,
	}
}

// NewHandler creates a new event handler.
func NewHandler(ctx context.Context, cfg Config) (*Handler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Events are cheap to process; a small outstanding window keeps
	// redeliveries after a crash bounded.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &Handler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		mailing:          cfg.Mailing,
		mailer:           cfg.Mailer,
		notifier:         cfg.Notifier,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing events. It blocks until ctx is cancelled or the
// subscription fails.
func (h *Handler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting event handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *Handler) Close() error {
	return h.client.Close()
}

func (h *Handler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("detail_type", msg.Attributes["detail-type"]).
		Logger()

	logger.Debug().Msg("received event")

	if err := h.Process(ctx, msg.Data); err != nil {
		// Nack everything, including unhandled detail-types: redelivery and
		// dead-lettering are the subscription's job, not this consumer's.
		if errors.Is(err, ErrUnhandledEventType) {
			logger.Error().Err(err).Msg("producer/consumer contract mismatch")
		} else {
			logger.Error().Err(err).Msg("event processing failed")
		}
		msg.Nack()
		return
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("event processed")

	msg.Ack()
}

// Process dispatches one raw event envelope. Exposed separately from the
// Pub/Sub plumbing so the dispatch logic is testable without a live
// subscription.
func (h *Handler) Process(ctx context.Context, data []byte) error {
	ev, err := ParseEnvelope(data)
	if err != nil {
		return err
	}

	switch ev := ev.(type) {
	case BookRequested:
		return h.handleBookRequested(ctx, ev.Request)
	case BookDownloaded:
		_, err := h.mailing.Validate(ctx, ev.Request.Email)
		return err
	default:
		return fmt.Errorf("%w: %T", ErrUnhandledEventType, ev)
	}
}

func (h *Handler) handleBookRequested(ctx context.Context, req download.Request) error {
	messageID, err := h.mailer.SendDownloadLink(ctx, req.Email, req.Name, req.Link)
	if err != nil {
		return fmt.Errorf("send download email: %w", err)
	}

	// The email is already out; failing the invocation over the audit event
	// would resend it on redelivery. Log and move on.
	sent := EmailSent{Email: req.Email, Name: req.Name, Link: req.Link, MessageID: messageID}
	if _, err := h.notifier.Publish(ctx, event.SourceEmailService, event.PrefixEmail, "sent", sent); err != nil {
		h.logger.Warn().Err(err).Str("email", req.Email).Msg("email.sent event not published")
	}

	if _, err := h.mailing.Create(ctx, req.Email, req.Name); err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}
