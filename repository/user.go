package repository

import (
	"context"
	"time"

	"github.com/shopcore/backend/domain"
)

// NewUser carries everything needed to create an account atomically: the user
// row, its initial role, and (for customers) the loyalty initialization.
type NewUser struct {
	User     *domain.User
	RoleName string
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByLogin matches username or email, case-sensitive exact match.
	// Inactive users are returned too; the caller decides how to fail.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	// Create inserts the user, assigns the initial role and, when the role is
	// Customer and the Bronze tier exists, seeds the loyalty record, all in
	// one transaction. Uniqueness of username/email is enforced by the
	// storage layer; a collision surfaces as domain.ErrDuplicateAccount and
	// leaves no partial row.
	Create(ctx context.Context, nu NewUser) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
