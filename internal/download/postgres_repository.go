package download

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL download request repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `
	id, email, name, token, link,
	created_at, expires_at, is_downloaded, downloaded_at,
	presigned_url, country_code
`

// Create inserts a new download request.
func (r *PostgresRepository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO download_requests (
			id, email, name, token, link,
			created_at, expires_at, is_downloaded, downloaded_at,
			presigned_url, country_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.Email,
		req.Name,
		req.Token,
		req.Link,
		req.CreatedAt,
		req.ExpiresAt,
		req.IsDownloaded,
		req.DownloadedAt,
		req.PresignedURL,
		req.CountryCode,
	)
	return err
}

// GetByToken retrieves a request by exact token match.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM download_requests WHERE token = $1`

	return r.scanRequest(r.pool.QueryRow(ctx, query, token))
}

// LatestByEmailSince returns the most recent request for the email created at
// or after the given instant.
func (r *PostgresRepository) LatestByEmailSince(ctx context.Context, email string, since time.Time) (*Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM download_requests
		WHERE email = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanRequest(r.pool.QueryRow(ctx, query, email, since))
}

// MarkDownloaded flips a request to downloaded. The update is conditional on
// is_downloaded being false so that concurrent redemptions of the same token
// cannot both succeed; the loser observes zero affected rows.
func (r *PostgresRepository) MarkDownloaded(ctx context.Context, id uuid.UUID, at time.Time, presignedURL string) (bool, error) {
	query := `
		UPDATE download_requests
		SET is_downloaded = true, downloaded_at = $2, presigned_url = $3
		WHERE id = $1 AND is_downloaded = false
	`

	result, err := r.pool.Exec(ctx, query, id, at, presignedURL)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// Statistics counts total and redeemed requests.
func (r *PostgresRepository) Statistics(ctx context.Context) (*Statistics, error) {
	query := `
		SELECT count(*), count(*) FILTER (WHERE is_downloaded)
		FROM download_requests
	`

	stats := &Statistics{}
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.Requested, &stats.Downloaded); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresRepository) scanRequest(row pgx.Row) (*Request, error) {
	req := &Request{}
	err := row.Scan(
		&req.ID,
		&req.Email,
		&req.Name,
		&req.Token,
		&req.Link,
		&req.CreatedAt,
		&req.ExpiresAt,
		&req.IsDownloaded,
		&req.DownloadedAt,
		&req.PresignedURL,
		&req.CountryCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
