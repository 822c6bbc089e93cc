package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns the append-only Postgres audit log.
func NewAuditRepository(pool *pgxpool.Pool) repository.AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO audit_log (user_id, action, resource_type, resource_id, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		nullTime(&entry.CreatedAt),
	).Scan(&entry.ID, &entry.CreatedAt)
}
