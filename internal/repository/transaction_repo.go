// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"remitflow-wallet/internal/domain"
)

// TransactionRepository defines the interface for ledger entry operations.
type TransactionRepository interface {
	// NextTransactionID draws the next public transaction id from its sequence.
	NextTransactionID(ctx context.Context, q DBExecutor) (int64, error)
	// CreateTransaction inserts a new ledger entry.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// MarkCompleted moves a PENDING entry to COMPLETED and stores its final metadata.
	MarkCompleted(ctx context.Context, q DBExecutor, transactionID int64, completedAt time.Time, metadata domain.JSONMap) error
	// GetByTransactionID retrieves an entry by its public id.
	GetByTransactionID(ctx context.Context, q DBExecutor, transactionID int64) (*domain.Transaction, error)
	// ListByAccountID returns a page of entries touching the account, newest first, plus the total count.
	ListByAccountID(ctx context.Context, q DBExecutor, accountID int64, limit, offset int) ([]domain.Transaction, int64, error)
}

// RecipientRepository stores the payee details of non-wallet transfers.
type RecipientRepository interface {
	CreateRecipient(ctx context.Context, q DBExecutor, recipient *domain.ExternalRecipient) error
	GetByTransactionID(ctx context.Context, q DBExecutor, transactionID int64) (*domain.ExternalRecipient, error)
	// LockByTransactionID reads the recipient row with a row lock.
	LockByTransactionID(ctx context.Context, q DBExecutor, transactionID int64) (*domain.ExternalRecipient, error)
	UpdateStage(ctx context.Context, q DBExecutor, transactionID int64, stage domain.DisbursementStage) error
}

// IdempotencyRepository maps caller keys to transactions.
type IdempotencyRepository interface {
	// GetActive returns the unexpired mapping for key, or util.ErrNotFound.
	GetActive(ctx context.Context, q DBExecutor, key string) (*domain.IdempotencyKey, error)
	// Reserve records the mapping. An unexpired mapping for the same key
	// yields util.ErrIdempotencyConflict; an expired one is replaced.
	Reserve(ctx context.Context, q DBExecutor, key *domain.IdempotencyKey) error
}
