package account

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

// UseCase serves the session-bound account view: the user record plus the
// loyalty standing for customers.
type UseCase struct {
	users   repository.UserRepository
	loyalty repository.LoyaltyRepository
	logger  *zap.Logger
}

// Account is the /me payload.
type Account struct {
	User    *domain.User            `json:"user"`
	Roles   []string                `json:"roles"`
	Loyalty *domain.CustomerLoyalty `json:"loyalty,omitempty"`
}

func New(users repository.UserRepository, loyalty repository.LoyaltyRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:   users,
		loyalty: loyalty,
		logger:  logger,
	}
}

// Get assembles the account for an already validated identity.
func (uc *UseCase) Get(ctx context.Context, identity *domain.Identity) (*Account, error) {
	if identity == nil {
		return nil, domain.ErrInvalidPayload
	}

	user, err := uc.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	acct := &Account{User: user, Roles: identity.Roles}

	if identity.HasRole(domain.RoleCustomer) {
		loyalty, err := uc.loyalty.GetForUser(ctx, user.ID)
		if err != nil {
			if !errors.Is(err, domain.ErrTierNotFound) {
				uc.logger.Warn("loyalty lookup failed", zap.String("user_id", user.ID), zap.Error(err))
			}
		} else {
			acct.Loyalty = loyalty
		}
	}

	return acct, nil
}
