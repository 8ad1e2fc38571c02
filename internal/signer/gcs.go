package signer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

// GCSIssuer issues V4 signed URLs for a fixed object in a Cloud Storage bucket.
type GCSIssuer struct {
	client *storage.Client
	bucket string
	object string
}

// GCSConfig holds configuration for the Cloud Storage issuer.
type GCSConfig struct {
	Bucket string
	Object string
}

// GCSConfigFromEnv creates a GCSConfig from environment variables.
func GCSConfigFromEnv() GCSConfig {
	object := os.Getenv("BOOK_OBJECT_KEY")
	if object == "" {
		object = "book.epub"
	}
	return GCSConfig{
		Bucket: os.Getenv("BOOK_BUCKET"),
		Object: object,
	}
}

// NewGCSIssuer creates a new Cloud Storage issuer using ambient credentials.
func NewGCSIssuer(ctx context.Context, cfg GCSConfig) (*GCSIssuer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCSIssuer{
		client: client,
		bucket: cfg.Bucket,
		object: cfg.Object,
	}, nil
}

// Issue returns a signed GET URL for the book object.
func (i *GCSIssuer) Issue(_ context.Context, expiry time.Duration) (string, error) {
	url, err := i.client.Bucket(i.bucket).SignedURL(i.object, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(expiry),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return url, nil
}

// Close releases the storage client.
func (i *GCSIssuer) Close() error {
	return i.client.Close()
}

// Ensure GCSIssuer implements Issuer interface.
var _ Issuer = (*GCSIssuer)(nil)
