package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookdrop/bookdrop/internal/event"
	"github.com/bookdrop/bookdrop/internal/signer"
)

// Workflow errors.
var (
	// ErrAlreadyUsed indicates the token has been redeemed before. It takes
	// precedence over expiry: a token that is both used and expired reports
	// "already used".
	ErrAlreadyUsed = errors.New("download link already used")

	// ErrLinkExpired indicates the token's expiry has passed.
	ErrLinkExpired = errors.New("download link expired")
)

// BackoffActiveError indicates the email requested a download within the
// backoff window. Remaining is the whole seconds until a new request is
// accepted.
type BackoffActiveError struct {
	Remaining int
}

func (e *BackoffActiveError) Error() string {
	return fmt.Sprintf("download already requested, retry in %d seconds", e.Remaining)
}

// Service implements the download-request workflow.
type Service struct {
	repo     Repository
	issuer   signer.Issuer
	notifier event.Notifier
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
}

// ServiceConfig holds dependencies for the download service.
type ServiceConfig struct {
	Repository Repository
	Issuer     signer.Issuer
	Notifier   event.Notifier
	Config     Config
	Logger     zerolog.Logger

	// Now overrides the clock. Used in tests; defaults to time.Now.
	Now func() time.Time
}

// NewService creates a new download service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     cfg.Repository,
		issuer:   cfg.Issuer,
		notifier: cfg.Notifier,
		cfg:      cfg.Config,
		logger:   cfg.Logger,
		now:      now,
	}
}

// Request creates a new download request for the email unless one was already
// created within the backoff window.
//
// The backoff check-then-insert is not atomic: two concurrent requests for the
// same email inside the window can both pass the check. This is a best-effort
// throttle, not a hard guarantee.
func (s *Service) Request(ctx context.Context, email, name string) (*Request, error) {
	now := s.now().UTC()

	prev, err := s.repo.LatestByEmailSince(ctx, email, now.Add(-s.cfg.Backoff))
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("check backoff window: %w", err)
	}
	if prev != nil {
		elapsed := int(now.Sub(prev.CreatedAt).Seconds())
		return nil, &BackoffActiveError{Remaining: int(s.cfg.Backoff.Seconds()) - elapsed}
	}

	req, err := NewRequest(s.cfg, email, name, now)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("email", req.Email).
		Time("expires_at", req.ExpiresAt).
		Msg("download requested")

	// The record is already committed; a failed publish leaves an orphaned
	// state transition behind, which is accepted and surfaced to the caller.
	if _, err := s.notifier.Publish(ctx, event.SourceDownloadService, event.PrefixBook, "requested", req); err != nil {
		return nil, err
	}

	return req, nil
}

// Redeem exchanges a token for a signed link, exactly once per token.
//
// Check precedence is fixed: unknown token, then already used, then expired,
// so a token that is both used and expired reports "already used". The signed
// link is issued lazily, here, so the stored secret's lifetime is minimal; the
// final downloaded flip is a compare-and-set, so at most one of any number of
// concurrent redemptions succeeds.
func (s *Service) Redeem(ctx context.Context, token string) (*Request, error) {
	now := s.now().UTC()

	req, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if req.IsDownloaded {
		return nil, ErrAlreadyUsed
	}
	if now.After(req.ExpiresAt) {
		return nil, ErrLinkExpired
	}

	url, err := s.issuer.Issue(ctx, req.ExpiresAt.Sub(now)+s.cfg.PresignMargin)
	if err != nil {
		return nil, fmt.Errorf("issue signed link: %w", err)
	}

	ok, err := s.repo.MarkDownloaded(ctx, req.ID, now, url)
	if err != nil {
		return nil, fmt.Errorf("mark downloaded: %w", err)
	}
	if !ok {
		// A concurrent redemption won between the read and the update.
		return nil, ErrAlreadyUsed
	}

	req.IsDownloaded = true
	req.DownloadedAt = &now
	req.PresignedURL = url

	s.logger.Info().
		Str("request_id", req.ID.String()).
		Str("email", req.Email).
		Msg("download redeemed")

	if _, err := s.notifier.Publish(ctx, event.SourceDownloadService, event.PrefixBook, "downloaded", req); err != nil {
		return nil, err
	}

	return req, nil
}

// Statistics counts requested and redeemed downloads.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	return s.repo.Statistics(ctx)
}
