package mailing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL subscriber repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new subscriber.
func (r *PostgresRepository) Create(ctx context.Context, sub *Subscriber) error {
	query := `
		INSERT INTO mailing_subscribers (
			id, email, name,
			is_validated, validated_at, is_subscribed, unsubscribed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.Email,
		sub.Name,
		sub.IsValidated,
		sub.ValidatedAt,
		sub.IsSubscribed,
		sub.UnsubscribedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

// GetByEmail retrieves a subscriber by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	query := `
		SELECT
			id, email, name,
			is_validated, validated_at, is_subscribed, unsubscribed_at,
			created_at, updated_at
		FROM mailing_subscribers
		WHERE email = $1
	`

	sub := &Subscriber{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&sub.ID,
		&sub.Email,
		&sub.Name,
		&sub.IsValidated,
		&sub.ValidatedAt,
		&sub.IsSubscribed,
		&sub.UnsubscribedAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, err
	}
	return sub, nil
}

// Update persists changes to an existing subscriber.
func (r *PostgresRepository) Update(ctx context.Context, sub *Subscriber) error {
	query := `
		UPDATE mailing_subscribers SET
			name = $2,
			is_validated = $3,
			validated_at = $4,
			is_subscribed = $5,
			unsubscribed_at = $6,
			updated_at = $7
		WHERE email = $1
	`

	result, err := r.pool.Exec(ctx, query,
		sub.Email,
		sub.Name,
		sub.IsValidated,
		sub.ValidatedAt,
		sub.IsSubscribed,
		sub.UnsubscribedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
