package repository

import (
	"context"

	"github.com/shopcore/backend/domain"
)

// SessionRepository is the ledger of issued tokens. Rows are only ever
// inserted and deactivated; natural expiry needs no write.
type SessionRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	// Deactivate flips is_active to false. Deactivating an already inactive
	// or unknown session is not an error; logout is idempotent.
	Deactivate(ctx context.Context, token string) error
}

// SessionCache mirrors active ledger rows for the validate fast path. The
// ledger stays authoritative: a cache miss falls through to it, and logout
// removes the mirror before touching the ledger.
type SessionCache interface {
	Get(ctx context.Context, token string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
	Remove(ctx context.Context, token string) error
}
