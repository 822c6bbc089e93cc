package usecase

import (
	"context"

	"github.com/shopcore/backend/domain"
)

// AuditRecorder is the fire-and-forget audit sink use cases write through.
// Implementations must never fail the caller: a write that cannot reach the
// audit table is buffered or, at worst, logged and dropped.
type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry)
}
