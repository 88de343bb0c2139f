// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionStatus defines the status of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// IsTerminal reports whether the status can no longer change.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusCancelled
}

// TransferMethod tells wallet-to-wallet and payout transfers apart.
type TransferMethod string

const (
	TransferMethodWallet    TransferMethod = "wallet"
	TransferMethodNonWallet TransferMethod = "non_wallet"
)

// Metadata keys written on every transfer.
const (
	MetaSenderName            = "sender_name"
	MetaRecipientName         = "recipient_name"
	MetaRecipientPhone        = "recipient_phone"
	MetaTransferMethod        = "transfer_method"
	MetaSenderBalanceBefore   = "sender_balance_before"
	MetaSenderBalanceAfter    = "sender_balance_after"
	MetaReceiverBalanceBefore = "receiver_balance_before"
	MetaReceiverBalanceAfter  = "receiver_balance_after"
	MetaRequestID             = "request_id"
	MetaReceiverWorkerID      = "receiver_worker_id"
)

// Transaction is one ledger entry. TransactionID is the public business id,
// ID is the storage primary key.
type Transaction struct {
	ID                    int64             `db:"id" json:"-"`
	TransactionID         int64             `db:"transaction_id" json:"transaction_id"`
	SenderUserID          int64             `db:"sender_user_id" json:"sender_user_id"`
	ReceiverUserID        *int64            `db:"receiver_user_id" json:"receiver_user_id,omitempty"`
	SenderAccountID       int64             `db:"sender_account_id" json:"sender_account_id"`
	ReceiverAccountID     *int64            `db:"receiver_account_id" json:"receiver_account_id,omitempty"`
	Amount                decimal.Decimal   `db:"amount" json:"amount"`
	Fee                   decimal.Decimal   `db:"fee" json:"fee"`
	TotalAmount           decimal.Decimal   `db:"total_amount" json:"total_amount"`
	Currency              string            `db:"currency" json:"currency"`
	Status                TransactionStatus `db:"status" json:"status"`
	Method                TransferMethod    `db:"transfer_method" json:"transfer_method"`
	Description           *string           `db:"description" json:"description,omitempty"`
	Metadata              JSONMap           `db:"metadata" json:"metadata,omitempty"`
	IsReversal            bool              `db:"is_reversal" json:"is_reversal"`
	OriginalTransactionID *int64            `db:"original_transaction_id" json:"original_transaction_id,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	CompletedAt           *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}

// NewPendingTransaction creates a PENDING ledger entry with total = amount + fee.
func NewPendingTransaction(
	transactionID int64,
	sender *Account,
	receiver *Account,
	amount, fee decimal.Decimal,
	method TransferMethod,
	description *string,
) *Transaction {
	now := time.Now().UTC()
	tx := &Transaction{
		TransactionID:   transactionID,
		SenderUserID:    sender.UserID,
		SenderAccountID: sender.ID,
		Amount:          amount,
		Fee:             fee,
		TotalAmount:     amount.Add(fee),
		Currency:        sender.Currency,
		Status:          TransactionStatusPending,
		Method:          method,
		Description:     description,
		Metadata:        JSONMap{MetaTransferMethod: string(method)},
		CreatedAt:       now,
	}
	if receiver != nil {
		receiverAccountID := receiver.ID
		tx.ReceiverAccountID = &receiverAccountID
		if method == TransferMethodWallet {
			receiverUserID := receiver.UserID
			tx.ReceiverUserID = &receiverUserID
		}
	}
	return tx
}

// IsSender reports whether userID initiated the transaction.
func (t *Transaction) IsSender(userID int64) bool {
	return t.SenderUserID == userID
}
