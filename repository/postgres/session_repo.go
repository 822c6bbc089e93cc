package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns the Postgres session ledger.
func NewSessionRepository(pool *pgxpool.Pool) repository.SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	const query = `
	SELECT id, user_id, token, expires_at, is_active, created_at
	FROM sessions
	WHERE token = $1
	`
	var session domain.Session
	if err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.IsActive,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrInvalidPayload
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO sessions (id, user_id, token, expires_at, is_active)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.IsActive,
	).Scan(&session.CreatedAt); err != nil {
		// The ledger is the sole revocation mechanism, so a failed insert
		// must surface to the caller rather than be swallowed.
		return domain.WrapError(domain.ErrCodePersistence, "record session", err)
	}
	return nil
}

func (r *sessionRepository) Deactivate(ctx context.Context, token string) error {
	const query = `UPDATE sessions SET is_active = FALSE WHERE token = $1`
	// Zero rows affected means the token was never issued or already revoked;
	// either way logout stays idempotent.
	_, err := r.pool.Exec(ctx, query, token)
	return err
}
