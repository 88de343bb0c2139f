// internal/domain/account.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Account is a per-user, per-currency wallet balance.
// System accounts (clearing and fee accounts) have IsSystem set.
type Account struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Currency  string          `db:"currency" json:"currency"`
	Balance   decimal.Decimal `db:"balance" json:"balance"` // NUMERIC(15, 2), never negative
	IsSystem  bool            `db:"is_system" json:"is_system"`
	Version   int64           `db:"version" json:"version"` // Bumped on every balance change
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether the account belongs to userID.
func (a *Account) OwnedBy(userID int64) bool {
	return a != nil && a.UserID == userID
}

// CanCover reports whether the balance is enough to pay total.
func (a *Account) CanCover(total decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(total)
}
