// internal/repository/account_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"remitflow-wallet/internal/domain"
)

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// CreateAccount adds a new account.
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.Account) error
	// GetAccountByID retrieves an account without locking it.
	GetAccountByID(ctx context.Context, q DBExecutor, id int64) (*domain.Account, error)
	// GetAccountByUserAndCurrency retrieves a user's account in one currency.
	GetAccountByUserAndCurrency(ctx context.Context, q DBExecutor, userID int64, currency string) (*domain.Account, error)
	// LockAccounts takes row locks on the given accounts in ascending id order
	// and returns them keyed by id. Missing ids are absent from the map.
	LockAccounts(ctx context.Context, q DBExecutor, ids []int64) (map[int64]*domain.Account, error)
	// AdjustBalance adds delta to the balance, refusing to go below zero.
	AdjustBalance(ctx context.Context, q DBExecutor, accountID int64, delta decimal.Decimal) error
}
