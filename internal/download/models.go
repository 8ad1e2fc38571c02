// Package download implements the download-request workflow: one-time token
// issuance gated by a per-email backoff window, and time-limited redemption of
// a token for a signed link to the book object.
package download

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Request represents a single download request and its redemption state.
// The full record is serialized as the payload of book.* domain events, so the
// JSON field names are part of the event contract.
type Request struct {
	// ID is the immutable primary key.
	ID uuid.UUID `json:"id"`

	// Email is the requester's address. Not unique; repeat requests are
	// gated by the backoff window instead.
	Email string `json:"email"`

	// Name is the requester's display name.
	Name string `json:"name"`

	// Token is the one-time unguessable redemption key, generated once at
	// creation and never regenerated.
	Token string `json:"token"`

	// Link is the public URL embedding the token, sent to the reader by email.
	Link string `json:"link"`

	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is fixed at creation (CreatedAt + token TTL) and never extended.
	ExpiresAt time.Time `json:"expires_at"`

	// IsDownloaded flips to true exactly once, on successful redemption.
	IsDownloaded bool       `json:"is_downloaded"`
	DownloadedAt *time.Time `json:"downloaded_at"`

	// PresignedURL is the signed link issued at redemption time. Empty until
	// the token is redeemed.
	PresignedURL string `json:"presigned_url"`

	CountryCode *string `json:"country_code"`
}

// Statistics counts requested and redeemed downloads.
type Statistics struct {
	Requested  int64 `json:"requested"`
	Downloaded int64 `json:"downloaded"`
}

// Config holds the tunables of the download workflow.
type Config struct {
	// FrontendURL is the public base URL the emailed download link points at.
	FrontendURL string

	// TokenTTL is how long a token stays redeemable after creation.
	TokenTTL time.Duration

	// Backoff is the minimum time between two requests from the same email.
	Backoff time.Duration

	// PresignMargin is added on top of the token's remaining lifetime when
	// issuing the signed link, so a redemption at the last valid instant
	// still completes.
	PresignMargin time.Duration
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	ttlHours, _ := strconv.Atoi(getEnvOrDefault("DOWNLOAD_TOKEN_TTL_HOURS", "48"))
	backoffSeconds, _ := strconv.Atoi(getEnvOrDefault("DOWNLOAD_BACKOFF_SECONDS", "90"))

	return Config{
		FrontendURL:   getEnvOrDefault("DOWNLOAD_FRONTEND_URL", "https://books.bookdrop.dev"),
		TokenTTL:      time.Duration(ttlHours) * time.Hour,
		Backoff:       time.Duration(backoffSeconds) * time.Second,
		PresignMargin: 10 * time.Second,
	}
}

// NewRequest constructs a pending download request with a fresh token, a
// derived public link, and a fixed expiry.
func NewRequest(cfg Config, email, name string, now time.Time) (*Request, error) {
	token, err := NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &Request{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Token:     token,
		Link:      fmt.Sprintf("%s/download/%s", cfg.FrontendURL, token),
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.TokenTTL),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
