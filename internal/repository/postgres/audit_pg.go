// internal/repository/postgres/audit_pg.go
package postgres

import (
	"context"
	"fmt"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

// AuditRepository implements repository.AuditRepository for PostgreSQL.
type AuditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() repository.AuditRepository {
	return &AuditRepository{}
}

// Append must run inside a transaction; the savepoint is what lets the caller
// continue after a failed insert.
func (r *AuditRepository) Append(ctx context.Context, q repository.DBExecutor, e *domain.AuditLogEntry) error {
	if _, err := q.ExecContext(ctx, `SAVEPOINT audit_entry`); err != nil {
		return util.WrapError(util.KindAuditWriteFailed, "failed to open audit savepoint", err)
	}

	query := `INSERT INTO audit_log (transaction_id, action, actor_id, ip_address, details, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := q.ExecContext(ctx, query, e.TransactionID, e.Action, e.ActorID, e.IPAddress, e.Details, e.CreatedAt); err != nil {
		if _, rbErr := q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT audit_entry`); rbErr != nil {
			return fmt.Errorf("audit insert failed (%v) and savepoint rollback failed: %w", err, rbErr)
		}
		return util.WrapError(util.KindAuditWriteFailed, "failed to append audit entry", err)
	}

	if _, err := q.ExecContext(ctx, `RELEASE SAVEPOINT audit_entry`); err != nil {
		return fmt.Errorf("failed to release audit savepoint: %w", err)
	}
	return nil
}
