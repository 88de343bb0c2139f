// internal/repository/limit_repo.go
package repository

import (
	"context"

	"remitflow-wallet/internal/domain"
)

// LimitRepository defines the interface for spending limit usage.
type LimitRepository interface {
	// GetForUpdate reads and locks the user's usage row joined with their KYC tier bounds.
	GetForUpdate(ctx context.Context, q DBExecutor, userID int64) (*domain.LimitLedger, error)
	// SaveUsage persists used amounts and reset timestamps.
	SaveUsage(ctx context.Context, q DBExecutor, ledger *domain.LimitLedger) error
	// AppendHistory writes one row per limit window.
	AppendHistory(ctx context.Context, q DBExecutor, rows []domain.LimitHistory) error
}

// FeeRepository defines fee configuration lookups and fee records.
type FeeRepository interface {
	// GetActiveConfig returns the active rule for feeType and currency, or util.ErrNotFound.
	GetActiveConfig(ctx context.Context, q DBExecutor, feeType, currency string) (*domain.FeeConfig, error)
	CreateFeeRecord(ctx context.Context, q DBExecutor, record *domain.FeeRecord) error
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	// Append writes the entry inside a savepoint so a failure leaves the
	// surrounding transaction usable.
	Append(ctx context.Context, q DBExecutor, entry *domain.AuditLogEntry) error
}
