// internal/service/audit.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
)

// AuditLogger appends audit entries. A write failure is logged and swallowed.
type AuditLogger struct {
	auditRepo repository.AuditRepository
	logger    *zap.Logger
}

func NewAuditLogger(auditRepo repository.AuditRepository, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{auditRepo: auditRepo, logger: logger}
}

// Record writes an entry for transactionID. It never returns an error.
func (a *AuditLogger) Record(ctx context.Context, q repository.DBExecutor, transactionID int64, action domain.AuditAction, actorID int64, ipAddress string, details domain.JSONMap) {
	entry := &domain.AuditLogEntry{
		TransactionID: transactionID,
		Action:        action,
		ActorID:       actorID,
		Details:       details,
		CreatedAt:     time.Now().UTC(),
	}
	if ipAddress != "" {
		entry.IPAddress = &ipAddress
	}
	if err := a.auditRepo.Append(ctx, q, entry); err != nil {
		a.logger.Error("audit write failed",
			zap.Int64("transaction_id", transactionID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}
