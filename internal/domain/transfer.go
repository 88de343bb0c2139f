// internal/domain/transfer.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletTransferIntent moves funds between two accounts of the same currency.
type WalletTransferIntent struct {
	RequesterID       int64           `json:"-" validate:"required,gt=0"`
	SenderAccountID   int64           `json:"sender_account_id" validate:"required,gt=0"`
	ReceiverAccountID int64           `json:"receiver_account_id" validate:"required,gt=0,nefield=SenderAccountID"`
	Amount            decimal.Decimal `json:"amount" validate:"money"`
	Pin               string          `json:"pin" validate:"required,numeric,min=4,max=6"`
	Description       string          `json:"description" validate:"omitempty,max=255"`
	IdempotencyKey    string          `json:"idempotency_key" validate:"omitempty,max=50"`
	IPAddress         string          `json:"-"`
	RequestID         string          `json:"-"`
}

// WorkerTransferIntent moves funds to the receiver's account in the sender's
// currency, with the receiver named by worker ID.
type WorkerTransferIntent struct {
	RequesterID      int64           `json:"-" validate:"required,gt=0"`
	SenderAccountID  int64           `json:"sender_account_id" validate:"required,gt=0"`
	ReceiverWorkerID string          `json:"receiver_worker_id" validate:"required,max=50"`
	Amount           decimal.Decimal `json:"amount" validate:"money"`
	Pin              string          `json:"pin" validate:"required,numeric,min=4,max=6"`
	Description      string          `json:"description" validate:"omitempty,max=255"`
	IdempotencyKey   string          `json:"idempotency_key" validate:"omitempty,max=50"`
	IPAddress        string          `json:"-"`
	RequestID        string          `json:"-"`
}

// RecipientDetails identifies the payee of a non-wallet transfer.
type RecipientDetails struct {
	FullName       string `json:"full_name" validate:"required,max=150"`
	IDDocumentType string `json:"id_document_type" validate:"required,max=50"`
	IDNumber       string `json:"id_number" validate:"required,max=50"`
	PhoneNumber    string `json:"phone_number" validate:"required,e164"`
	Email          string `json:"email" validate:"omitempty,email"`
	Country        string `json:"country" validate:"required,iso3166_1_alpha2"`
	State          string `json:"state" validate:"omitempty,max=100"`
	City           string `json:"city" validate:"omitempty,max=100"`
	Relationship   string `json:"relationship" validate:"omitempty,max=50"`
}

// NonWalletTransferIntent pays out to a recipient without an account.
type NonWalletTransferIntent struct {
	RequesterID     int64            `json:"-" validate:"required,gt=0"`
	SenderAccountID int64            `json:"sender_account_id" validate:"required,gt=0"`
	Amount          decimal.Decimal  `json:"amount" validate:"money"`
	Pin             string           `json:"pin" validate:"required,numeric,min=4,max=6"`
	Description     string           `json:"description" validate:"omitempty,max=255"`
	IdempotencyKey  string           `json:"idempotency_key" validate:"omitempty,max=50"`
	Recipient       RecipientDetails `json:"recipient"`
	IPAddress       string           `json:"-"`
	RequestID       string           `json:"-"`
}

// TransferResult is what callers get back from a transfer or a status query.
type TransferResult struct {
	TransactionID     int64              `json:"transaction_id"`
	Status            TransactionStatus  `json:"status"`
	Method            TransferMethod     `json:"transfer_method"`
	SenderAccountID   int64              `json:"sender_account_id"`
	ReceiverAccountID *int64             `json:"receiver_account_id,omitempty"`
	Amount            decimal.Decimal    `json:"amount"`
	Fee               decimal.Decimal    `json:"fee"`
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	Currency          string             `json:"currency"`
	Description       *string            `json:"description,omitempty"`
	RecipientName     string             `json:"recipient_name,omitempty"`
	Stage             *DisbursementStage `json:"disbursement_stage,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
	Replayed          bool               `json:"replayed"` // True when served from an earlier request with the same key
}

// NewTransferResult builds a result from a ledger entry and, for payouts, its recipient.
func NewTransferResult(tx *Transaction, recipient *ExternalRecipient) *TransferResult {
	res := &TransferResult{
		TransactionID:     tx.TransactionID,
		Status:            tx.Status,
		Method:            tx.Method,
		SenderAccountID:   tx.SenderAccountID,
		ReceiverAccountID: tx.ReceiverAccountID,
		Amount:            tx.Amount,
		Fee:               tx.Fee,
		TotalAmount:       tx.TotalAmount,
		Currency:          tx.Currency,
		Description:       tx.Description,
		RecipientName:     tx.Metadata.String(MetaRecipientName),
		CreatedAt:         tx.CreatedAt,
		CompletedAt:       tx.CompletedAt,
	}
	if recipient != nil {
		stage := recipient.Stage
		res.Stage = &stage
		res.RecipientName = recipient.FullName
	}
	return res
}
