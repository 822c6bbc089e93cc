package repository

import (
	"context"

	"github.com/shopcore/backend/domain"
)

// LoyaltyRepository reads the customer's standing. Initialization happens
// inside the registration transaction, so there is no write port here.
type LoyaltyRepository interface {
	GetForUser(ctx context.Context, userID string) (*domain.CustomerLoyalty, error)
}
