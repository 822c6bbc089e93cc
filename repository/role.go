package repository

import (
	"context"
)

type RoleRepository interface {
	// ListForUser returns the user's current role names. Validators call this
	// on every check so role changes apply without re-login.
	ListForUser(ctx context.Context, userID string) ([]string, error)
	Assign(ctx context.Context, userID string, roleID int64) error
	Revoke(ctx context.Context, userID string, roleID int64) error
}
