package repository

import (
	"context"

	"github.com/shopcore/backend/domain"
)

// AuditRepository appends to the audit log. There is deliberately no update
// or delete: entries are immutable once written.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}
