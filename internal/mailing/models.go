// Package mailing implements the mailing-list state machine. Subscribers are
// created from book.requested events, validated on the matching
// book.downloaded event, and can unsubscribe or resubscribe over HTTP.
package mailing

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber represents one mailing-list member. At most one record per email
// ever exists; creation is deduplicated on the email key. The full record is
// serialized as the payload of mailing.* domain events.
type Subscriber struct {
	// ID is the immutable primary key.
	ID uuid.UUID `json:"id"`

	// Email is the unique subscriber key.
	Email string `json:"email"`

	// Name is the display name captured from the first download request.
	Name string `json:"name"`

	// IsValidated flips to true exactly once, on the first confirmed download.
	IsValidated bool       `json:"is_validated"`
	ValidatedAt *time.Time `json:"validated_at"`

	IsSubscribed   bool       `json:"is_subscribed"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`

	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubscriber constructs an unvalidated, subscribed record.
func NewSubscriber(email, name string, now time.Time) *Subscriber {
	return &Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		IsSubscribed: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
