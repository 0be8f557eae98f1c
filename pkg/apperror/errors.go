package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Meta       map[string]any `json:"-"` // Extra fields rendered in the error body
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMeta attaches an extra field to the rendered error body.
func (e *AppError) WithMeta(key string, value any) *AppError {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a 400 for missing or malformed input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidPhoneNumber() *AppError {
	return New("VAL_002", "Phone number must be a valid M-Pesa number (254 prefix)", http.StatusBadRequest)
}

func ErrInvalidPIN() *AppError {
	return New("VAL_003", "Withdrawal PIN is incorrect", http.StatusForbidden)
}

// ---- Withdrawal Business Logic (WDR) ----

func ErrInsufficientBalance() *AppError {
	return New("WDR_001", "Withdrawal amount exceeds available balance", http.StatusBadRequest)
}

func ErrFeeExceedsAmount() *AppError {
	return New("WDR_002", "Withdrawal amount does not cover the transaction fee", http.StatusBadRequest)
}

// ErrLedgerConflict is returned when serializable transaction retries are
// exhausted. Distinct from ErrInsufficientBalance: the request may succeed if
// replayed.
func ErrLedgerConflict(err error) *AppError {
	return Wrap("WDR_003", "Withdrawal could not be recorded due to concurrent activity, please retry", http.StatusServiceUnavailable, err)
}

func ErrNotFound(entity string) *AppError {
	return New("WDR_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrWithdrawalInFlight() *AppError {
	return New("WDR_005", "Another withdrawal is already being processed for this seller", http.StatusConflict)
}

// ---- Gateway (GW) ----

// ErrPayoutProvider surfaces a payout dispatch failure. The withdrawal id is
// attached so the caller can follow up on the failed record.
func ErrPayoutProvider(withdrawalID string, err error) *AppError {
	e := Wrap("GW_001", "Payout provider rejected the disbursement", http.StatusBadGateway, err)
	return e.WithMeta("withdrawal_id", withdrawalID)
}

// ErrReversalFailure marks a failed compensation: the seller is left
// under-credited and operator reconciliation is required.
func ErrReversalFailure(withdrawalID string, err error) *AppError {
	e := Wrap("GW_002", "Payout failed and the balance reversal could not be applied", http.StatusBadGateway, err)
	return e.WithMeta("withdrawal_id", withdrawalID)
}

func ErrCollectionProvider(err error) *AppError {
	return Wrap("GW_003", "Collection provider rejected the charge", http.StatusBadGateway, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
