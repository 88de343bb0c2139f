// internal/domain/recipient.go
package domain

import "time"

// DisbursementStage tracks the payout of a non-wallet transfer.
type DisbursementStage string

const (
	StageInitiated  DisbursementStage = "INITIATED"
	StageProcessing DisbursementStage = "PROCESSING"
	StageDisbursed  DisbursementStage = "DISBURSED"
	StageFailed     DisbursementStage = "FAILED"
)

// ParseDisbursementStage returns the stage for s and false when s is not a known stage.
func ParseDisbursementStage(s string) (DisbursementStage, bool) {
	switch DisbursementStage(s) {
	case StageInitiated, StageProcessing, StageDisbursed, StageFailed:
		return DisbursementStage(s), true
	}
	return "", false
}

// CanTransitionTo reports whether a payout may move from s to next.
// Initiated -> Processing -> Disbursed | Failed; Disbursed and Failed are final.
func (s DisbursementStage) CanTransitionTo(next DisbursementStage) bool {
	switch s {
	case StageInitiated:
		return next == StageProcessing
	case StageProcessing:
		return next == StageDisbursed || next == StageFailed
	}
	return false
}

// ExternalRecipient holds the payee details of a non-wallet transfer, 1:1 with a transaction.
type ExternalRecipient struct {
	ID             int64             `db:"id" json:"id"`
	TransactionID  int64             `db:"transaction_id" json:"transaction_id"`
	FullName       string            `db:"full_name" json:"full_name"`
	IDDocumentType string            `db:"id_document_type" json:"id_document_type"`
	IDNumber       string            `db:"id_number" json:"id_number"`
	PhoneNumber    string            `db:"phone_number" json:"phone_number"`
	Email          *string           `db:"email" json:"email,omitempty"`
	Country        string            `db:"country" json:"country"`
	State          *string           `db:"state" json:"state,omitempty"`
	City           *string           `db:"city" json:"city,omitempty"`
	Relationship   *string           `db:"relationship" json:"relationship,omitempty"`
	Stage          DisbursementStage `db:"stage" json:"stage"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}
