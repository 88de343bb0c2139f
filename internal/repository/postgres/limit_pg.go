// internal/repository/postgres/limit_pg.go
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

// LimitRepository implements repository.LimitRepository for PostgreSQL.
type LimitRepository struct{}

// NewLimitRepository creates a new LimitRepository.
func NewLimitRepository() repository.LimitRepository {
	return &LimitRepository{}
}

// GetForUpdate locks only the user_limits row; the KYC tier is read as-is.
func (r *LimitRepository) GetForUpdate(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.LimitLedger, error) {
	var l domain.LimitLedger
	query := `SELECT ul.id, ul.user_id, ul.kyc_level_id, ul.daily_limit, ul.monthly_limit, ul.annual_limit,
                     ul.daily_used, ul.monthly_used, ul.annual_used,
                     k.min_transaction_amount, k.max_transaction_amount,
                     ul.last_reset_daily, ul.last_reset_monthly, ul.last_reset_annual, ul.updated_at
              FROM user_limits ul
              JOIN kyc_levels k ON k.id = ul.kyc_level_id
              WHERE ul.user_id = $1
              FOR UPDATE OF ul`
	if err := q.GetContext(ctx, &l, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock limits for user %d: %w", userID, err)
	}
	return &l, nil
}

// SaveUsage writes used amounts together with the reset timestamps they were computed against.
func (r *LimitRepository) SaveUsage(ctx context.Context, q repository.DBExecutor, l *domain.LimitLedger) error {
	query := `UPDATE user_limits
              SET daily_used = $1, monthly_used = $2, annual_used = $3,
                  last_reset_daily = $4, last_reset_monthly = $5, last_reset_annual = $6, updated_at = $7
              WHERE id = $8`
	_, err := q.ExecContext(ctx, query,
		l.DailyUsed, l.MonthlyUsed, l.AnnualUsed,
		l.LastResetDaily, l.LastResetMonthly, l.LastResetAnnual, time.Now().UTC(), l.ID)
	if err != nil {
		return fmt.Errorf("failed to save limit usage for user %d: %w", l.UserID, err)
	}
	return nil
}

// AppendHistory inserts the history rows one by one inside the caller's transaction.
func (r *LimitRepository) AppendHistory(ctx context.Context, q repository.DBExecutor, rows []domain.LimitHistory) error {
	query := `INSERT INTO limit_history (user_id, transaction_id, period, amount, previous_used, new_used, limit_value, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, h := range rows {
		if _, err := q.ExecContext(ctx, query,
			h.UserID, h.TransactionID, h.Period, h.Amount, h.PreviousUsed, h.NewUsed, h.LimitValue, h.CreatedAt); err != nil {
			return fmt.Errorf("failed to append %s limit history: %w", h.Period, err)
		}
	}
	return nil
}
