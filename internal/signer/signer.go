// Package signer issues time-limited signed URLs granting read access to the
// single book object in the blob store.
package signer

import (
	"context"
	"errors"
	"time"
)

// Issuer errors.
var (
	// ErrUnavailable indicates the backing credential or service could not
	// be reached. No retries are performed here; callers surface the failure
	// and leave retry policy to the platform.
	ErrUnavailable = errors.New("signed link issuer unavailable")
)

// Issuer produces a URL granting time-limited read access to one fixed object.
type Issuer interface {
	// Issue returns a signed URL valid for the given duration from now.
	Issue(ctx context.Context, expiry time.Duration) (string, error)
}
