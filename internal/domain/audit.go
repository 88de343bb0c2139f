// internal/domain/audit.go
package domain

import "time"

// AuditAction tags an audit log entry.
type AuditAction string

const (
	AuditTransferCompleted          AuditAction = "TRANSFER_COMPLETED"
	AuditNonWalletTransferCompleted AuditAction = "NON_WALLET_TRANSFER_COMPLETED"
	AuditDisbursementStageChanged   AuditAction = "DISBURSEMENT_STAGE_CHANGED"
)

// AuditLogEntry is an append-only record of an action on a transaction.
type AuditLogEntry struct {
	ID            int64       `db:"id" json:"id"`
	TransactionID int64       `db:"transaction_id" json:"transaction_id"`
	Action        AuditAction `db:"action" json:"action"`
	ActorID       int64       `db:"actor_id" json:"actor_id"`
	IPAddress     *string     `db:"ip_address" json:"ip_address,omitempty"`
	Details       JSONMap     `db:"details" json:"details,omitempty"` // before/after snapshot
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}
