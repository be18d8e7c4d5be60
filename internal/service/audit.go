package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
)

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// recordAudit writes an audit entry. Failures are logged and never surface to the caller.
func recordAudit(ctx context.Context, auditor auditRecorder, logger *zap.Logger, entry *models.AuditLog) {
	if auditor == nil {
		return
	}
	if err := auditor.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
