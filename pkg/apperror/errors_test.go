package apperror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	e := New("WDR_001", "Withdrawal amount exceeds available balance", http.StatusBadRequest)
	assert.Equal(t, "[WDR_001] Withdrawal amount exceeds available balance", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("boom"))
	assert.Contains(t, wrapped.Error(), "boom")
	assert.Equal(t, "boom", wrapped.Unwrap().Error())
}

func TestAppError_HTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"validation", Validation("missing sellerId"), http.StatusBadRequest, "VAL_001"},
		{"phone", ErrInvalidPhoneNumber(), http.StatusBadRequest, "VAL_002"},
		{"pin", ErrInvalidPIN(), http.StatusForbidden, "VAL_003"},
		{"insufficient", ErrInsufficientBalance(), http.StatusBadRequest, "WDR_001"},
		{"fee", ErrFeeExceedsAmount(), http.StatusBadRequest, "WDR_002"},
		{"conflict", ErrLedgerConflict(errors.New("40001")), http.StatusServiceUnavailable, "WDR_003"},
		{"not_found", ErrNotFound("withdrawal"), http.StatusNotFound, "WDR_004"},
		{"in_flight", ErrWithdrawalInFlight(), http.StatusConflict, "WDR_005"},
		{"rate", ErrRateLimitExceeded(), http.StatusTooManyRequests, "RATE_001"},
		{"internal", InternalError(errors.New("db down")), http.StatusInternalServerError, "SYS_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestErrPayoutProvider_CarriesWithdrawalID(t *testing.T) {
	cause := errors.New(`{"errors":[{"detail":"insufficient float"}]}`)
	e := ErrPayoutProvider("wd-123", cause)

	assert.Equal(t, http.StatusBadGateway, e.HTTPStatus)
	assert.Equal(t, "GW_001", e.Code)
	require.NotNil(t, e.Meta)
	assert.Equal(t, "wd-123", e.Meta["withdrawal_id"])
	assert.ErrorIs(t, e, cause)
}

func TestErrReversalFailure_DistinctFromProviderError(t *testing.T) {
	e := ErrReversalFailure("wd-456", errors.New("commit failed"))
	assert.Equal(t, "GW_002", e.Code)
	assert.Equal(t, "wd-456", e.Meta["withdrawal_id"])
}
