package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already e164", "+256703859328", "+256703859328"},
		{"leading zero uses default code", "0703859328", "+256703859328"},
		{"strips separators", "+256 (703) 859-328", "+256703859328"},
		{"bare international number", "254712345678", "+254712345678"},
		{"empty", "", ""},
		{"only punctuation", " - ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in, "+256"))
		})
	}
}

func TestNormalizePhone_CountryCodeWithoutPlus(t *testing.T) {
	assert.Equal(t, "+254712345678", NormalizePhone("0712345678", "254"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********9328", MaskPhone("+256703859328"))
	assert.Equal(t, "****", MaskPhone("123"))
}

func TestAppError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("transfer: %w", WrapError(KindInsufficientFunds, "balance 10.00 < 21.00", nil))

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.False(t, errors.Is(err, ErrInvalidPin))
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
}

func TestKindOf_DefaultsToTransferFailed(t *testing.T) {
	assert.Equal(t, KindTransferFailed, KindOf(errors.New("connection reset")))
}

func TestErrorKind_CodesAndStatuses(t *testing.T) {
	assert.Equal(t, "ERR_902", KindInsufficientFunds.Code())
	assert.Equal(t, "ERR_909", KindDailyLimitExceeded.Code())
	assert.Equal(t, "ERR_915", KindFeeConfigurationNotFound.Code())
	assert.Equal(t, http.StatusPaymentRequired, KindInsufficientFunds.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, KindUnauthorized.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, KindFeeConfigurationNotFound.HTTPStatus())
	assert.Equal(t, "MONTHLY_LIMIT_EXCEEDED", KindMonthlyLimitExceeded.String())
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := WrapError(KindTransferFailed, "commit failed", errors.New("deadlock detected"))
	assert.Equal(t, "commit failed: deadlock detected", err.Error())
	assert.ErrorContains(t, errors.Unwrap(err), "deadlock")
}
