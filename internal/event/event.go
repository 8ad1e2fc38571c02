// Package event provides domain-event publishing against a Pub/Sub topic and
// the envelope format shared between producers and consumers.
package event

import (
	"encoding/json"
	"errors"
)

// Event sources.
const (
	SourceDownloadService = "downloadService"
	SourceEmailService    = "emailService"
)

// Event type prefixes. The wire detail-type is "{prefix}.{type}".
const (
	PrefixBook    = "book"
	PrefixMailing = "mailing"
	PrefixEmail   = "email"
)

// Known detail-types.
const (
	TypeBookRequested       = "book.requested"
	TypeBookDownloaded      = "book.downloaded"
	TypeMailingCreated      = "mailing.created"
	TypeMailingValidated    = "mailing.validated"
	TypeMailingUnsubscribed = "mailing.unsubscribed"
	TypeMailingResubscribed = "mailing.resubscribed"
	TypeEmailSent           = "email.sent"
)

// Notifier errors.
var (
	// ErrPublishFailed indicates the event bus was unreachable or rejected
	// the event. Callers commit their own state before publishing, so a
	// failed publish leaves an orphaned state transition behind; that is an
	// accepted failure mode and is not retried here.
	ErrPublishFailed = errors.New("event publish failed")
)

// Envelope is the wire format of a domain event. It mirrors the shape the
// platform event bus delivers to consumers, so the same struct is used on
// both the publish and the receive path.
type Envelope struct {
	// ID is the bus-assigned event identifier. Empty on the publish path.
	ID string `json:"id,omitempty"`

	// Source names the producing service.
	Source string `json:"source"`

	// DetailType is "{prefix}.{type}", e.g. "book.requested".
	DetailType string `json:"detail-type"`

	// Detail is the full record of the aggregate that changed, as JSON.
	Detail json.RawMessage `json:"detail"`
}

// DetailType composes a wire detail-type from a prefix and an event type.
func DetailType(prefix, eventType string) string {
	return prefix + "." + eventType
}
