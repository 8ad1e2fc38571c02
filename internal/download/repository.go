package download

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository errors.
var (
	ErrRequestNotFound = errors.New("download request not found")
)

// Repository defines the interface for download request persistence.
type Repository interface {
	// Create inserts a new download request.
	Create(ctx context.Context, req *Request) error

	// GetByToken retrieves a request by exact token match.
	GetByToken(ctx context.Context, token string) (*Request, error)

	// LatestByEmailSince returns the most recent request for the email
	// created at or after the given instant, or ErrRequestNotFound.
	LatestByEmailSince(ctx context.Context, email string, since time.Time) (*Request, error)

	// MarkDownloaded flips a request to downloaded if and only if it has not
	// been downloaded yet. Returns false when the request was already
	// redeemed (a concurrent redeemer won the race).
	MarkDownloaded(ctx context.Context, id uuid.UUID, at time.Time, presignedURL string) (bool, error)

	// Statistics counts total and redeemed requests.
	Statistics(ctx context.Context) (*Statistics, error)
}

// InMemoryRepository is an in-memory implementation of Repository for tests
// and local development.
type InMemoryRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*Request
}

// NewInMemoryRepository creates a new in-memory download request repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		requests: make(map[uuid.UUID]*Request),
	}
}

// Create inserts a new download request.
func (r *InMemoryRepository) Create(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests[req.ID] = copyRequest(req)
	return nil
}

// GetByToken retrieves a request by exact token match.
func (r *InMemoryRepository) GetByToken(_ context.Context, token string) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.Token == token {
			return copyRequest(req), nil
		}
	}
	return nil, ErrRequestNotFound
}

// LatestByEmailSince returns the most recent request for the email created at
// or after the given instant.
func (r *InMemoryRepository) LatestByEmailSince(_ context.Context, email string, since time.Time) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Request
	for _, req := range r.requests {
		if req.Email != email || req.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, ErrRequestNotFound
	}
	return copyRequest(latest), nil
}

// MarkDownloaded flips a request to downloaded with compare-and-set semantics.
func (r *InMemoryRepository) MarkDownloaded(_ context.Context, id uuid.UUID, at time.Time, presignedURL string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return false, ErrRequestNotFound
	}
	if req.IsDownloaded {
		return false, nil
	}

	downloadedAt := at
	req.IsDownloaded = true
	req.DownloadedAt = &downloadedAt
	req.PresignedURL = presignedURL
	return true, nil
}

// Statistics counts total and redeemed requests.
func (r *InMemoryRepository) Statistics(_ context.Context) (*Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &Statistics{}
	for _, req := range r.requests {
		stats.Requested++
		if req.IsDownloaded {
			stats.Downloaded++
		}
	}
	return stats, nil
}

// copyRequest creates a deep copy of a request.
func copyRequest(req *Request) *Request {
	if req == nil {
		return nil
	}

	reqCopy := *req
	if req.DownloadedAt != nil {
		at := *req.DownloadedAt
		reqCopy.DownloadedAt = &at
	}
	if req.CountryCode != nil {
		cc := *req.CountryCode
		reqCopy.CountryCode = &cc
	}
	return &reqCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
