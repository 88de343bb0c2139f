// internal/domain/idempotency.go
package domain

import "time"

// IdempotencyKey maps a caller supplied key to the transaction it produced.
type IdempotencyKey struct {
	Key           string    `db:"key" json:"key"`
	TransactionID int64     `db:"transaction_id" json:"transaction_id"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
