// internal/domain/limits.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitPeriod is one of the three rolling usage windows.
type LimitPeriod string

const (
	PeriodDaily   LimitPeriod = "DAILY"
	PeriodMonthly LimitPeriod = "MONTHLY"
	PeriodAnnual  LimitPeriod = "ANNUAL"
)

// KycLevel is a tier of transaction ceilings.
type KycLevel struct {
	ID                   int64           `db:"id" json:"id"`
	Name                 string          `db:"name" json:"name"`
	DailyLimit           decimal.Decimal `db:"daily_limit" json:"daily_limit"`
	MonthlyLimit         decimal.Decimal `db:"monthly_limit" json:"monthly_limit"`
	AnnualLimit          decimal.Decimal `db:"annual_limit" json:"annual_limit"`
	MinTransactionAmount decimal.Decimal `db:"min_transaction_amount" json:"min_transaction_amount"`
	MaxTransactionAmount decimal.Decimal `db:"max_transaction_amount" json:"max_transaction_amount"`
}

// LimitLedger is a user's usage against their KYC tier.
// Min/Max come from the joined kyc_levels row.
type LimitLedger struct {
	ID                   int64           `db:"id"`
	UserID               int64           `db:"user_id"`
	KycLevelID           int64           `db:"kyc_level_id"`
	DailyLimit           decimal.Decimal `db:"daily_limit"`
	MonthlyLimit         decimal.Decimal `db:"monthly_limit"`
	AnnualLimit          decimal.Decimal `db:"annual_limit"`
	DailyUsed            decimal.Decimal `db:"daily_used"`
	MonthlyUsed          decimal.Decimal `db:"monthly_used"`
	AnnualUsed           decimal.Decimal `db:"annual_used"`
	MinTransactionAmount decimal.Decimal `db:"min_transaction_amount"`
	MaxTransactionAmount decimal.Decimal `db:"max_transaction_amount"`
	LastResetDaily       *time.Time      `db:"last_reset_daily"`
	LastResetMonthly     *time.Time      `db:"last_reset_monthly"`
	LastResetAnnual      *time.Time      `db:"last_reset_annual"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

// RolledOver returns a copy with every window whose calendar period (UTC) has
// passed since its last reset zeroed and restamped with now.
// A nil reset timestamp always rolls over.
func (l LimitLedger) RolledOver(now time.Time) LimitLedger {
	now = now.UTC()
	out := l
	if l.LastResetDaily == nil || !sameDay(l.LastResetDaily.UTC(), now) {
		out.DailyUsed = decimal.Zero
		out.LastResetDaily = &now
	}
	if l.LastResetMonthly == nil || !sameMonth(l.LastResetMonthly.UTC(), now) {
		out.MonthlyUsed = decimal.Zero
		out.LastResetMonthly = &now
	}
	if l.LastResetAnnual == nil || l.LastResetAnnual.UTC().Year() != now.Year() {
		out.AnnualUsed = decimal.Zero
		out.LastResetAnnual = &now
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// LimitHistory is one traceability row written per window on every usage update.
type LimitHistory struct {
	ID            int64           `db:"id"`
	UserID        int64           `db:"user_id"`
	TransactionID int64           `db:"transaction_id"`
	Period        LimitPeriod     `db:"period"`
	Amount        decimal.Decimal `db:"amount"`
	PreviousUsed  decimal.Decimal `db:"previous_used"`
	NewUsed       decimal.Decimal `db:"new_used"`
	LimitValue    decimal.Decimal `db:"limit_value"`
	CreatedAt     time.Time       `db:"created_at"`
}
