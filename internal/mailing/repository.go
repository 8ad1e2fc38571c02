package mailing

import (
	"context"
	"errors"
	"sync"
)

// Repository errors.
var (
	ErrSubscriberNotFound = errors.New("subscriber not found")
)

// Repository defines the interface for subscriber persistence.
type Repository interface {
	// Create inserts a new subscriber.
	Create(ctx context.Context, sub *Subscriber) error

	// GetByEmail retrieves a subscriber by email.
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)

	// Update persists changes to an existing subscriber.
	Update(ctx context.Context, sub *Subscriber) error
}

// InMemoryRepository is an in-memory implementation of Repository for tests
// and local development.
type InMemoryRepository struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// NewInMemoryRepository creates a new in-memory subscriber repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		subscribers: make(map[string]*Subscriber),
	}
}

// Create inserts a new subscriber.
func (r *InMemoryRepository) Create(_ context.Context, sub *Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subscribers[sub.Email] = copySubscriber(sub)
	return nil
}

// GetByEmail retrieves a subscriber by email.
func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subscribers[email]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	return copySubscriber(sub), nil
}

// Update persists changes to an existing subscriber.
func (r *InMemoryRepository) Update(_ context.Context, sub *Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[sub.Email]; !ok {
		return ErrSubscriberNotFound
	}
	r.subscribers[sub.Email] = copySubscriber(sub)
	return nil
}

// copySubscriber creates a deep copy of a subscriber.
func copySubscriber(sub *Subscriber) *Subscriber {
	if sub == nil {
		return nil
	}

	subCopy := *sub
	if sub.ValidatedAt != nil {
		at := *sub.ValidatedAt
		subCopy.ValidatedAt = &at
	}
	if sub.UnsubscribedAt != nil {
		at := *sub.UnsubscribedAt
		subCopy.UnsubscribedAt = &at
	}
	return &subCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
