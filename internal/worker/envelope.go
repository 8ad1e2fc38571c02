// Package worker consumes domain events from the Pub/Sub subscription and
// drives the mailing-list workflow and email delivery.
package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bookdrop/bookdrop/internal/download"
	"github.com/bookdrop/bookdrop/internal/event"
)

// ErrUnhandledEventType indicates an inbound detail-type this consumer does
// not know. It signals a producer/consumer contract mismatch and is fatal for
// the invocation; redelivery is left to the subscription's redrive policy.
var ErrUnhandledEventType = errors.New("unhandled event type")

// InboundEvent is the tagged union of events this consumer handles.
type InboundEvent interface {
	inboundEvent()
}

// BookRequested carries the download request created by the API.
type BookRequested struct {
	Request download.Request
}

// BookDownloaded carries the download request after redemption.
type BookDownloaded struct {
	Request download.Request
}

func (BookRequested) inboundEvent()  {}
func (BookDownloaded) inboundEvent() {}

// EmailSent is the payload of the email.sent event published after the
// download email is delivered.
type EmailSent struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Link      string `json:"link"`
	MessageID string `json:"message_id"`
}

// ParseEnvelope decodes an event envelope into its typed variant.
func ParseEnvelope(data []byte) (InboundEvent, error) {
	var env event.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.DetailType {
	case event.TypeBookRequested:
		var req download.Request
		if err := json.Unmarshal(env.Detail, &req); err != nil {
			return nil, fmt.Errorf("decode %s detail: %w", env.DetailType, err)
		}
		return BookRequested{Request: req}, nil

	case event.TypeBookDownloaded:
		var req download.Request
		if err := json.Unmarshal(env.Detail, &req); err != nil {
			return nil, fmt.Errorf("decode %s detail: %w", env.DetailType, err)
		}
		return BookDownloaded{Request: req}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnhandledEventType, env.DetailType)
	}
}
