// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

const accountColumns = `id, user_id, currency, balance, is_system, version, created_at, updated_at`

// AccountRepository implements repository.AccountRepository for PostgreSQL.
type AccountRepository struct{}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() repository.AccountRepository {
	return &AccountRepository{}
}

// CreateAccount inserts a new account using the provided DBExecutor.
func (r *AccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, account *domain.Account) error {
	query := `INSERT INTO accounts (user_id, currency, balance, is_system, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		account.UserID, account.Currency, account.Balance, account.IsSystem, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *AccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	if err := q.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by ID %d: %w", id, err)
	}
	return &account, nil
}

// GetAccountByUserAndCurrency retrieves the account a user holds in currency.
func (r *AccountRepository) GetAccountByUserAndCurrency(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND currency = $2`
	if err := q.GetContext(ctx, &account, query, userID, currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s account of user %d: %w", currency, userID, err)
	}
	return &account, nil
}

// LockAccounts locks the rows with SELECT ... FOR UPDATE. Sorting before the
// lock step makes concurrent transfers acquire locks in the same order.
func (r *AccountRepository) LockAccounts(ctx context.Context, q repository.DBExecutor, ids []int64) (map[int64]*domain.Account, error) {
	var accounts []domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	if err := q.SelectContext(ctx, &accounts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to lock accounts %v: %w", ids, err)
	}
	out := make(map[int64]*domain.Account, len(accounts))
	for i := range accounts {
		out[accounts[i].ID] = &accounts[i]
	}
	return out, nil
}

// AdjustBalance applies delta to the balance. The WHERE guard keeps the
// balance non-negative even if a caller skipped the lock.
func (r *AccountRepository) AdjustBalance(ctx context.Context, q repository.DBExecutor, accountID int64, delta decimal.Decimal) error {
	query := `UPDATE accounts
              SET balance = balance + $1, version = version + 1, updated_at = $2
              WHERE id = $3 AND balance + $1 >= 0`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), accountID)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for account %d: %w", accountID, err)
	}
	if rowsAffected == 0 {
		return util.NewError(util.KindInsufficientFunds, fmt.Sprintf("account %d cannot absorb %s", accountID, delta.StringFixed(2)))
	}
	return nil
}
