package mailing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/event"
)

// Service implements the mailing-list workflow.
type Service struct {
	repo     Repository
	notifier event.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig holds dependencies for the mailing service.
type ServiceConfig struct {
	Repository Repository
	Notifier   event.Notifier
	Logger     zerolog.Logger

	// Now overrides the clock. Used in tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new mailing service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     cfg.Repository,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Create adds a subscriber, deduplicated on email. A repeat call for a known
// email returns the existing record unchanged and publishes nothing, so
// at-least-once delivery of book.requested events is safe.
func (s *Service) Create(ctx context.Context, email, name string) (*Subscriber, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrSubscriberNotFound) {
		return nil, fmt.Errorf("look up subscriber: %w", err)
	}
	if existing != nil {
		s.logger.Info().Str("email", email).Msg("subscriber already exists")
		return existing, nil
	}

	sub := NewSubscriber(email, name, s.now().UTC())
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	s.logger.Info().
		Str("subscriber_id", sub.ID.String()).
		Str("email", sub.Email).
		Msg("subscriber created")

	if _, err := s.notifier.Publish(ctx, event.SourceEmailService, event.PrefixMailing, "created", sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// Validate marks a subscriber's email as confirmed. The subscriber must
// exist: a book.downloaded event without a prior book.requested event is an
// invariant violation and surfaces as ErrSubscriberNotFound. Validation
// happens at most once; repeat calls return the record unchanged, keeping the
// first validation timestamp.
func (s *Service) Validate(ctx context.Context, email string) (*Subscriber, error) {
	sub, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if sub.IsValidated {
		return sub, nil
	}

	now := s.now().UTC()
	sub.IsValidated = true
	sub.ValidatedAt = &now
	sub.UpdatedAt = now

	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("update subscriber: %w", err)
	}

	s.logger.Info().Str("email", sub.Email).Msg("subscriber validated")

	if _, err := s.notifier.Publish(ctx, event.SourceEmailService, event.PrefixMailing, "validated", sub); err != nil {
		return nil, err
	}

	return sub, nil
}

// Unsubscribe removes the email from the list. An unknown email succeeds
// silently with no event, so the response never reveals whether the address
// is on the list.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	sub, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrSubscriberNotFound) {
		s.logger.Warn().Str("email", email).Msg("unsubscribe for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up subscriber: %w", err)
	}

	now := s.now().UTC()
	sub.IsSubscribed = false
	sub.UnsubscribedAt = &now
	sub.UpdatedAt = now

	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}

	s.logger.Info().Str("email", sub.Email).Msg("subscriber unsubscribed")

	if _, err := s.notifier.Publish(ctx, event.SourceEmailService, event.PrefixMailing, "unsubscribed", sub); err != nil {
		return err
	}
	return nil
}

// Resubscribe puts the email back on the list, clearing the unsubscription
// timestamp. Unknown emails succeed silently, same as Unsubscribe.
func (s *Service) Resubscribe(ctx context.Context, email string) error {
	sub, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrSubscriberNotFound) {
		s.logger.Warn().Str("email", email).Msg("resubscribe for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up subscriber: %w", err)
	}

	sub.IsSubscribed = true
	sub.UnsubscribedAt = nil
	sub.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, sub); err != nil {
		return fmt.Errorf("update subscriber: %w", err)
	}

	s.logger.Info().Str("email", sub.Email).Msg("subscriber resubscribed")

	if _, err := s.notifier.Publish(ctx, event.SourceEmailService, event.PrefixMailing, "resubscribed", sub); err != nil {
		return err
	}
	return nil
}
