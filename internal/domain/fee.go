// internal/domain/fee.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeConfig is the active fee rule for a (fee type, currency) pair.
type FeeConfig struct {
	ID          int64           `db:"id"`
	FeeType     string          `db:"fee_type"`
	Currency    string          `db:"currency"`
	Percentage  decimal.Decimal `db:"percentage"`   // 1.00 means 1%
	FixedAmount decimal.Decimal `db:"fixed_amount"` // Added after the percentage part
	MinFee      decimal.Decimal `db:"min_fee"`
	IsActive    bool            `db:"is_active"`
}

// FeeRecord keeps the inputs and result of a fee calculation, 1:1 with a transaction.
type FeeRecord struct {
	ID            int64           `db:"id" json:"id"`
	TransactionID int64           `db:"transaction_id" json:"transaction_id"`
	FeeType       string          `db:"fee_type" json:"fee_type"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	Percentage    decimal.Decimal `db:"percentage" json:"percentage"`
	FixedAmount   decimal.Decimal `db:"fixed_amount" json:"fixed_amount"`
	MinFee        decimal.Decimal `db:"min_fee" json:"min_fee"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
