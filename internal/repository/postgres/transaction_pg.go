// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

const transactionColumns = `id, transaction_id, sender_user_id, receiver_user_id, sender_account_id, receiver_account_id,
       amount, fee, total_amount, currency, status, transfer_method, description, metadata,
       is_reversal, original_transaction_id, created_at, completed_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// NextTransactionID draws from transaction_id_seq.
func (r *TransactionRepository) NextTransactionID(ctx context.Context, q repository.DBExecutor) (int64, error) {
	var id int64
	if err := q.GetContext(ctx, &id, `SELECT nextval('transaction_id_seq')`); err != nil {
		return 0, fmt.Errorf("failed to allocate transaction id: %w", err)
	}
	return id, nil
}

// CreateTransaction inserts a new transaction record using the provided DBExecutor.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, t *domain.Transaction) error {
	query := `INSERT INTO transactions (transaction_id, sender_user_id, receiver_user_id, sender_account_id, receiver_account_id,
                  amount, fee, total_amount, currency, status, transfer_method, description, metadata,
                  is_reversal, original_transaction_id, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`

	err := q.QueryRowContext(ctx, query,
		t.TransactionID,
		t.SenderUserID,
		t.ReceiverUserID,
		t.SenderAccountID,
		t.ReceiverAccountID,
		t.Amount,
		t.Fee,
		t.TotalAmount,
		t.Currency,
		t.Status,
		t.Method,
		t.Description,
		t.Metadata,
		t.IsReversal,
		t.OriginalTransactionID,
		t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction %d: %w", t.TransactionID, err)
	}
	return nil
}

// MarkCompleted transitions a PENDING entry to COMPLETED. Completed entries are never updated again.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, q repository.DBExecutor, transactionID int64, completedAt time.Time, metadata domain.JSONMap) error {
	query := `UPDATE transactions SET status = $1, completed_at = $2, metadata = $3
              WHERE transaction_id = $4 AND status = $5`
	result, err := q.ExecContext(ctx, query,
		domain.TransactionStatusCompleted, completedAt, metadata, transactionID, domain.TransactionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to complete transaction %d: %w", transactionID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %d: %w", transactionID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %d is not pending", transactionID)
	}
	return nil
}

// GetByTransactionID retrieves a transaction by its public id.
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.Transaction, error) {
	var t domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`
	if err := q.GetContext(ctx, &t, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %d: %w", transactionID, err)
	}
	return &t, nil
}

// ListByAccountID retrieves a paginated list of transactions for an account.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) ListByAccountID(ctx context.Context, q repository.DBExecutor, accountID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	// Both directions count as history of the account
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sender_account_id = $1 OR receiver_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &transactions, query, accountID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for account %d: %w", accountID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE sender_account_id = $1 OR receiver_account_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, accountID); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for account %d: %w", accountID, err)
	}

	return transactions, totalCount, nil
}
