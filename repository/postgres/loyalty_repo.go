package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

type loyaltyRepository struct {
	pool *pgxpool.Pool
}

// NewLoyaltyRepository returns a Postgres-backed implementation of LoyaltyRepository.
func NewLoyaltyRepository(pool *pgxpool.Pool) repository.LoyaltyRepository {
	return &loyaltyRepository{pool: pool}
}

func (r *loyaltyRepository) GetForUser(ctx context.Context, userID string) (*domain.CustomerLoyalty, error) {
	const query = `
	SELECT user_id, tier_id, current_points, lifetime_points, updated_at
	FROM customer_loyalty
	WHERE user_id = $1
	`
	var loyalty domain.CustomerLoyalty
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&loyalty.UserID,
		&loyalty.TierID,
		&loyalty.CurrentPoints,
		&loyalty.LifetimePoints,
		&loyalty.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTierNotFound
		}
		return nil, err
	}
	return &loyalty, nil
}
