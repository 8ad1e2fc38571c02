package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Notifier publishes domain events. Delivery is at-least-once, asynchronous,
// and unordered with respect to other producers; a returned event id does not
// mean any consumer has processed the event.
type Notifier interface {
	// Publish emits one event and returns the bus-assigned event id.
	// The detail payload is serialized to JSON.
	Publish(ctx context.Context, source, prefix, eventType string, detail any) (string, error)
}

// InMemoryNotifier is an in-memory implementation of Notifier for tests and
// local development. It records every published envelope.
type InMemoryNotifier struct {
	mu        sync.Mutex
	published []Envelope

	// FailWith, when non-nil, makes every Publish call fail.
	FailWith error
}

// NewInMemoryNotifier creates a new in-memory notifier.
func NewInMemoryNotifier() *InMemoryNotifier {
	return &InMemoryNotifier{}
}

// Publish records the event and returns a generated id.
func (n *InMemoryNotifier) Publish(_ context.Context, source, prefix, eventType string, detail any) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.FailWith != nil {
		return "", fmt.Errorf("%w: %v", ErrPublishFailed, n.FailWith)
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("%w: encode detail: %v", ErrPublishFailed, err)
	}

	id := uuid.NewString()
	n.published = append(n.published, Envelope{
		ID:         id,
		Source:     source,
		DetailType: DetailType(prefix, eventType),
		Detail:     payload,
	})
	return id, nil
}

// Published returns a copy of all recorded envelopes.
func (n *InMemoryNotifier) Published() []Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Envelope, len(n.published))
	copy(out, n.published)
	return out
}

// PublishedOfType returns recorded envelopes matching a detail-type.
func (n *InMemoryNotifier) PublishedOfType(detailType string) []Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Envelope
	for _, env := range n.published {
		if env.DetailType == detailType {
			out = append(out, env)
		}
	}
	return out
}

// Ensure InMemoryNotifier implements Notifier interface.
var _ Notifier = (*InMemoryNotifier)(nil)
