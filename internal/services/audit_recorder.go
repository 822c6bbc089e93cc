package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/usecase"
)

// AuditRecorder adapts the processor to the fire-and-forget port the use
// cases log through. Failures are logged and suppressed; the audit sink must
// never abort a login, logout or registration.
type AuditRecorder struct {
	processor *AuditProcessor
	logger    *zap.Logger
}

func NewAuditRecorder(processor *AuditProcessor, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{processor: processor, logger: logger}
}

func (r *AuditRecorder) Record(ctx context.Context, entry domain.AuditEntry) {
	if r == nil || r.processor == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := r.processor.Write(ctx, entry); err != nil {
		r.logger.Error("audit entry lost",
			zap.String("action", entry.Action),
			zap.String("user_id", entry.UserID),
			zap.Error(err))
	}
}

var _ usecase.AuditRecorder = (*AuditRecorder)(nil)
