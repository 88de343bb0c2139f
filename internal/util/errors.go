// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories the wallet engine reports.
type ErrorKind int

const (
	KindTransferFailed ErrorKind = iota // Catch-all for unexpected internal failure
	KindInvalidInput
	KindAccountNotFound
	KindUserNotFound
	KindTransactionNotFound
	KindInvalidPin
	KindInsufficientFunds
	KindCurrencyMismatch
	KindUnauthorized
	KindDailyLimitExceeded
	KindMonthlyLimitExceeded
	KindAnnualLimitExceeded
	KindAmountTooSmall
	KindAmountTooLarge
	KindLimitsNotFound
	KindFeeConfigurationNotFound
	KindIdempotencyConflict
	KindInvalidStageTransition
	KindNotificationDeliveryFailed
	KindAuditWriteFailed
)

// String returns the machine-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransferFailed:
		return "TRANSFER_FAILED"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindAccountNotFound:
		return "ACCOUNT_NOT_FOUND"
	case KindUserNotFound:
		return "USER_NOT_FOUND"
	case KindTransactionNotFound:
		return "TRANSACTION_NOT_FOUND"
	case KindInvalidPin:
		return "INVALID_PIN"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindCurrencyMismatch:
		return "CURRENCY_MISMATCH"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindDailyLimitExceeded:
		return "DAILY_LIMIT_EXCEEDED"
	case KindMonthlyLimitExceeded:
		return "MONTHLY_LIMIT_EXCEEDED"
	case KindAnnualLimitExceeded:
		return "ANNUAL_LIMIT_EXCEEDED"
	case KindAmountTooSmall:
		return "AMOUNT_TOO_SMALL"
	case KindAmountTooLarge:
		return "AMOUNT_TOO_LARGE"
	case KindLimitsNotFound:
		return "LIMITS_NOT_FOUND"
	case KindFeeConfigurationNotFound:
		return "FEE_CONFIGURATION_NOT_FOUND"
	case KindIdempotencyConflict:
		return "IDEMPOTENCY_CONFLICT"
	case KindInvalidStageTransition:
		return "INVALID_STAGE_TRANSITION"
	case KindNotificationDeliveryFailed:
		return "NOTIFICATION_DELIVERY_FAILED"
	case KindAuditWriteFailed:
		return "AUDIT_WRITE_FAILED"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Code returns the stable error code exposed to API clients.
func (k ErrorKind) Code() string {
	switch k {
	case KindTransferFailed:
		return "ERR_901"
	case KindInsufficientFunds:
		return "ERR_902"
	case KindInvalidInput:
		return "ERR_903"
	case KindAccountNotFound:
		return "ERR_904"
	case KindUnauthorized:
		return "ERR_905"
	case KindCurrencyMismatch:
		return "ERR_906"
	case KindAmountTooLarge:
		return "ERR_907"
	case KindAmountTooSmall:
		return "ERR_908"
	case KindDailyLimitExceeded:
		return "ERR_909"
	case KindMonthlyLimitExceeded:
		return "ERR_910"
	case KindAnnualLimitExceeded:
		return "ERR_911"
	case KindFeeConfigurationNotFound:
		return "ERR_915"
	case KindLimitsNotFound:
		return "ERR_916"
	case KindTransactionNotFound:
		return "ERR_917"
	case KindInvalidStageTransition:
		return "ERR_924"
	case KindIdempotencyConflict:
		return "ERR_930"
	case KindUserNotFound:
		return "ERR_501"
	case KindInvalidPin:
		return "ERR_651"
	case KindNotificationDeliveryFailed:
		return "ERR_953"
	case KindAuditWriteFailed:
		return "ERR_960"
	}
	return "ERR_002"
}

// HTTPStatus maps the kind to the status code used by the HTTP adapter.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidInput, KindCurrencyMismatch, KindAmountTooSmall, KindAmountTooLarge,
		KindDailyLimitExceeded, KindMonthlyLimitExceeded, KindAnnualLimitExceeded:
		return http.StatusBadRequest
	case KindInsufficientFunds:
		return http.StatusPaymentRequired
	case KindInvalidPin:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindAccountNotFound, KindUserNotFound, KindTransactionNotFound:
		return http.StatusNotFound
	case KindIdempotencyConflict, KindInvalidStageTransition:
		return http.StatusConflict
	case KindLimitsNotFound, KindFeeConfigurationNotFound, KindTransferFailed,
		KindNotificationDeliveryFailed, KindAuditWriteFailed:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// AppError carries a kind, a human message and an optional cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an AppError of the given kind.
func NewError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// WrapError attaches a cause to a new AppError of the given kind.
func WrapError(kind ErrorKind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// Common application-specific errors.
var (
	ErrNotFound                 = errors.New("resource not found") // Raw repository miss, mapped to a kind by callers
	ErrInvalidInput             = NewError(KindInvalidInput, "invalid input provided")
	ErrAccountNotFound          = NewError(KindAccountNotFound, "account not found")
	ErrUserNotFound             = NewError(KindUserNotFound, "user not found")
	ErrTransactionNotFound      = NewError(KindTransactionNotFound, "transaction not found")
	ErrInvalidPin               = NewError(KindInvalidPin, "invalid PIN")
	ErrInsufficientFunds        = NewError(KindInsufficientFunds, "insufficient funds")
	ErrCurrencyMismatch         = NewError(KindCurrencyMismatch, "currency mismatch")
	ErrUnauthorized             = NewError(KindUnauthorized, "not authorized to access this resource")
	ErrDailyLimitExceeded       = NewError(KindDailyLimitExceeded, "daily transaction limit exceeded")
	ErrMonthlyLimitExceeded     = NewError(KindMonthlyLimitExceeded, "monthly transaction limit exceeded")
	ErrAnnualLimitExceeded      = NewError(KindAnnualLimitExceeded, "annual transaction limit exceeded")
	ErrAmountTooSmall           = NewError(KindAmountTooSmall, "transaction amount below minimum")
	ErrAmountTooLarge           = NewError(KindAmountTooLarge, "transaction amount above maximum")
	ErrLimitsNotFound           = NewError(KindLimitsNotFound, "transaction limits not configured for user")
	ErrFeeConfigurationNotFound = NewError(KindFeeConfigurationNotFound, "fee configuration not found")
	ErrIdempotencyConflict      = NewError(KindIdempotencyConflict, "idempotency key already used")
	ErrInvalidStageTransition   = NewError(KindInvalidStageTransition, "invalid disbursement stage transition")
	ErrTransferFailed           = NewError(KindTransferFailed, "transfer failed")
	ErrSameAccountTransfer      = NewError(KindInvalidInput, "cannot transfer to the same account")
)

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf returns the kind of the first AppError in err's chain, or KindTransferFailed.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransferFailed
}
