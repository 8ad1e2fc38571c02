package signer

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StaticIssuer is an Issuer for tests and local development. It returns a
// fixed URL and records the expiry of the last issued link.
type StaticIssuer struct {
	mu  sync.Mutex
	url string

	// FailWith, when non-nil, makes every Issue call fail.
	FailWith error

	lastExpiry time.Duration
	issued     int
}

// NewStaticIssuer creates a StaticIssuer returning the given URL.
func NewStaticIssuer(url string) *StaticIssuer {
	return &StaticIssuer{url: url}
}

// Issue returns the configured URL.
func (i *StaticIssuer) Issue(_ context.Context, expiry time.Duration) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.FailWith != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, i.FailWith)
	}

	i.lastExpiry = expiry
	i.issued++
	return i.url, nil
}

// LastExpiry returns the expiry requested by the most recent Issue call.
func (i *StaticIssuer) LastExpiry() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastExpiry
}

// Issued returns how many links have been issued.
func (i *StaticIssuer) Issued() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.issued
}

// Ensure StaticIssuer implements Issuer interface.
var _ Issuer = (*StaticIssuer)(nil)
