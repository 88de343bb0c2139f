// internal/repository/postgres/fee_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

// FeeRepository implements repository.FeeRepository for PostgreSQL.
type FeeRepository struct{}

// NewFeeRepository creates a new FeeRepository.
func NewFeeRepository() repository.FeeRepository {
	return &FeeRepository{}
}

func (r *FeeRepository) GetActiveConfig(ctx context.Context, q repository.DBExecutor, feeType, currency string) (*domain.FeeConfig, error) {
	var cfg domain.FeeConfig
	query := `SELECT id, fee_type, currency, percentage, fixed_amount, min_fee, is_active
              FROM fee_configurations
              WHERE fee_type = $1 AND currency = $2 AND is_active`
	if err := q.GetContext(ctx, &cfg, query, feeType, currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fee configuration %s/%s: %w", feeType, currency, err)
	}
	return &cfg, nil
}

func (r *FeeRepository) CreateFeeRecord(ctx context.Context, q repository.DBExecutor, rec *domain.FeeRecord) error {
	query := `INSERT INTO fee_records (transaction_id, fee_type, amount, currency, percentage, fixed_amount, min_fee, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		rec.TransactionID, rec.FeeType, rec.Amount, rec.Currency, rec.Percentage, rec.FixedAmount, rec.MinFee, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to create fee record for transaction %d: %w", rec.TransactionID, err)
	}
	return nil
}
