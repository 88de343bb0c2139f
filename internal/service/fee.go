// internal/service/fee.go
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

var hundred = decimal.NewFromInt(100)

// FeeQuote is a calculated fee together with the rule that produced it.
type FeeQuote struct {
	Amount decimal.Decimal
	Config domain.FeeConfig
}

// Record builds the fee record persisted with the transaction.
func (q FeeQuote) Record(transactionID int64) *domain.FeeRecord {
	return &domain.FeeRecord{
		TransactionID: transactionID,
		FeeType:       q.Config.FeeType,
		Amount:        q.Amount,
		Currency:      q.Config.Currency,
		Percentage:    q.Config.Percentage,
		FixedAmount:   q.Config.FixedAmount,
		MinFee:        q.Config.MinFee,
		CreatedAt:     time.Now().UTC(),
	}
}

// FeeCalculator looks up active fee rules and applies them.
type FeeCalculator struct {
	feeRepo repository.FeeRepository
}

func NewFeeCalculator(feeRepo repository.FeeRepository) *FeeCalculator {
	return &FeeCalculator{feeRepo: feeRepo}
}

// Quote returns the fee for amount under the active (feeType, currency) rule.
// A missing rule is fatal: a transfer never proceeds with an implicit zero fee.
func (c *FeeCalculator) Quote(ctx context.Context, q repository.DBExecutor, feeType, currency string, amount decimal.Decimal) (FeeQuote, error) {
	cfg, err := c.feeRepo.GetActiveConfig(ctx, q, feeType, currency)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return FeeQuote{}, util.NewError(util.KindFeeConfigurationNotFound,
				fmt.Sprintf("no active %s configuration for %s", feeType, currency))
		}
		return FeeQuote{}, fmt.Errorf("fee lookup: %w", err)
	}
	return FeeQuote{Amount: CalculateFee(amount, *cfg), Config: *cfg}, nil
}

// Record persists the fee record for quote.
func (c *FeeCalculator) Record(ctx context.Context, q repository.DBExecutor, quote FeeQuote, transactionID int64) error {
	return c.feeRepo.CreateFeeRecord(ctx, q, quote.Record(transactionID))
}

// CalculateFee computes amount*percentage/100 + fixed, rounded half-up to two
// decimals and raised to the configured minimum.
func CalculateFee(amount decimal.Decimal, cfg domain.FeeConfig) decimal.Decimal {
	fee := amount.Mul(cfg.Percentage).Div(hundred).Add(cfg.FixedAmount).Round(2)
	if fee.LessThan(cfg.MinFee) {
		return cfg.MinFee.Round(2)
	}
	return fee
}
