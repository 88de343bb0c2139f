// internal/repository/postgres/recipient_pg.go
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

const recipientColumns = `id, transaction_id, full_name, id_document_type, id_number, phone_number, email,
       country, state, city, relationship, stage, created_at, updated_at`

// RecipientRepository implements repository.RecipientRepository for PostgreSQL.
type RecipientRepository struct{}

// NewRecipientRepository creates a new RecipientRepository.
func NewRecipientRepository() repository.RecipientRepository {
	return &RecipientRepository{}
}

func (r *RecipientRepository) CreateRecipient(ctx context.Context, q repository.DBExecutor, rec *domain.ExternalRecipient) error {
	query := `INSERT INTO external_recipients (transaction_id, full_name, id_document_type, id_number, phone_number, email,
                  country, state, city, relationship, stage, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		rec.TransactionID, rec.FullName, rec.IDDocumentType, rec.IDNumber, rec.PhoneNumber, rec.Email,
		rec.Country, rec.State, rec.City, rec.Relationship, rec.Stage, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create recipient for transaction %d: %w", rec.TransactionID, err)
	}
	return nil
}

func (r *RecipientRepository) GetByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.ExternalRecipient, error) {
	return r.get(ctx, q, `SELECT `+recipientColumns+` FROM external_recipients WHERE transaction_id = $1`, transactionID)
}

func (r *RecipientRepository) LockByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.ExternalRecipient, error) {
	return r.get(ctx, q, `SELECT `+recipientColumns+` FROM external_recipients WHERE transaction_id = $1 FOR UPDATE`, transactionID)
}

func (r *RecipientRepository) get(ctx context.Context, q repository.DBExecutor, query string, transactionID int64) (*domain.ExternalRecipient, error) {
	var rec domain.ExternalRecipient
	if err := q.GetContext(ctx, &rec, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipient for transaction %d: %w", transactionID, err)
	}
	return &rec, nil
}

func (r *RecipientRepository) UpdateStage(ctx context.Context, q repository.DBExecutor, transactionID int64, stage domain.DisbursementStage) error {
	query := `UPDATE external_recipients SET stage = $1, updated_at = $2 WHERE transaction_id = $3`
	result, err := q.ExecContext(ctx, query, stage, time.Now().UTC(), transactionID)
	if err != nil {
		return fmt.Errorf("failed to update stage for transaction %d: %w", transactionID, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %d: %w", transactionID, err)
	} else if n == 0 {
		return util.ErrNotFound
	}
	return nil
}
