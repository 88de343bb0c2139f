// internal/service/limit.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/repository"
	"remitflow-wallet/internal/util"
)

// LimitCheck is a passed limit check. It carries the locked, rolled-over usage
// so the same view is persisted by LimitTracker.Record.
type LimitCheck struct {
	previous domain.LimitLedger
	amount   decimal.Decimal
}

// LimitTracker enforces KYC-tier ceilings.
type LimitTracker struct {
	limitRepo repository.LimitRepository
	now       func() time.Time
}

func NewLimitTracker(limitRepo repository.LimitRepository) *LimitTracker {
	return &LimitTracker{limitRepo: limitRepo, now: time.Now}
}

// Check locks the user's usage row and verifies that amount fits the
// single-transaction bounds and all three windows. Nothing is written.
func (t *LimitTracker) Check(ctx context.Context, q repository.DBExecutor, userID int64, amount decimal.Decimal) (*LimitCheck, error) {
	ledger, err := t.limitRepo.GetForUpdate(ctx, q, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.NewError(util.KindLimitsNotFound, fmt.Sprintf("no limits configured for user %d", userID))
		}
		return nil, fmt.Errorf("limit lookup: %w", err)
	}

	view := ledger.RolledOver(t.now())

	if view.MinTransactionAmount.IsPositive() && amount.LessThan(view.MinTransactionAmount) {
		return nil, util.NewError(util.KindAmountTooSmall,
			fmt.Sprintf("amount %s is below the minimum of %s", amount.StringFixed(2), view.MinTransactionAmount.StringFixed(2)))
	}
	if view.MaxTransactionAmount.IsPositive() && amount.GreaterThan(view.MaxTransactionAmount) {
		return nil, util.NewError(util.KindAmountTooLarge,
			fmt.Sprintf("amount %s is above the maximum of %s", amount.StringFixed(2), view.MaxTransactionAmount.StringFixed(2)))
	}
	if view.DailyUsed.Add(amount).GreaterThan(view.DailyLimit) {
		return nil, limitError(util.KindDailyLimitExceeded, "daily", view.DailyUsed, view.DailyLimit)
	}
	if view.MonthlyUsed.Add(amount).GreaterThan(view.MonthlyLimit) {
		return nil, limitError(util.KindMonthlyLimitExceeded, "monthly", view.MonthlyUsed, view.MonthlyLimit)
	}
	if view.AnnualUsed.Add(amount).GreaterThan(view.AnnualLimit) {
		return nil, limitError(util.KindAnnualLimitExceeded, "annual", view.AnnualUsed, view.AnnualLimit)
	}

	return &LimitCheck{previous: view, amount: amount}, nil
}

// Record adds the checked amount to every window and appends one history row per window.
func (t *LimitTracker) Record(ctx context.Context, q repository.DBExecutor, check *LimitCheck, transactionID int64) error {
	prev := check.previous
	next := prev
	next.DailyUsed = prev.DailyUsed.Add(check.amount)
	next.MonthlyUsed = prev.MonthlyUsed.Add(check.amount)
	next.AnnualUsed = prev.AnnualUsed.Add(check.amount)
	next.UpdatedAt = t.now().UTC()

	if err := t.limitRepo.SaveUsage(ctx, q, &next); err != nil {
		return fmt.Errorf("limit usage update: %w", err)
	}

	history := []domain.LimitHistory{
		historyRow(next, transactionID, domain.PeriodDaily, check.amount, prev.DailyUsed, next.DailyUsed, next.DailyLimit),
		historyRow(next, transactionID, domain.PeriodMonthly, check.amount, prev.MonthlyUsed, next.MonthlyUsed, next.MonthlyLimit),
		historyRow(next, transactionID, domain.PeriodAnnual, check.amount, prev.AnnualUsed, next.AnnualUsed, next.AnnualLimit),
	}
	if err := t.limitRepo.AppendHistory(ctx, q, history); err != nil {
		return fmt.Errorf("limit history: %w", err)
	}
	return nil
}

func historyRow(l domain.LimitLedger, txID int64, period domain.LimitPeriod, amount, before, after, limit decimal.Decimal) domain.LimitHistory {
	return domain.LimitHistory{
		UserID:        l.UserID,
		TransactionID: txID,
		Period:        period,
		Amount:        amount,
		PreviousUsed:  before,
		NewUsed:       after,
		LimitValue:    limit,
		CreatedAt:     l.UpdatedAt,
	}
}

func limitError(kind util.ErrorKind, window string, used, limit decimal.Decimal) error {
	return util.NewError(kind, fmt.Sprintf("%s limit of %s exceeded (used %s)", window, limit.StringFixed(2), used.StringFixed(2)))
}
