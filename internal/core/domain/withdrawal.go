package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal attempt.
type WithdrawalStatus string

const (
	// WithdrawalStatusPendingPayout is the initial state, set before any
	// external call is made.
	WithdrawalStatusPendingPayout WithdrawalStatus = "PENDING_PAYOUT"
	// WithdrawalStatusPayoutInitiated means the provider accepted the payout.
	WithdrawalStatusPayoutInitiated WithdrawalStatus = "PAYOUT_INITIATED"
	// WithdrawalStatusPayoutFailed means the provider call failed. Terminal
	// under the aggregate balance policy; under the stored-counter policy the
	// pre-deducted balance still has to be restored.
	WithdrawalStatusPayoutFailed WithdrawalStatus = "PAYOUT_FAILED"
	// WithdrawalStatusPayoutFailedReversed means the compensating re-credit
	// has been applied.
	WithdrawalStatusPayoutFailedReversed WithdrawalStatus = "PAYOUT_FAILED_REVERSED"
)

// CanTransitionTo reports whether the state machine permits moving to next.
// No state is revisited once exited.
func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	switch s {
	case WithdrawalStatusPendingPayout:
		return next == WithdrawalStatusPayoutInitiated || next == WithdrawalStatusPayoutFailed
	case WithdrawalStatusPayoutFailed:
		return next == WithdrawalStatusPayoutFailedReversed
	default:
		return false
	}
}

// Withdrawal is the durable record of one withdrawal attempt. Records are
// append-only from the caller's perspective: status moves forward through the
// state machine and rows are never deleted.
type Withdrawal struct {
	ID             uuid.UUID        `json:"id"`
	SellerID       uuid.UUID        `json:"seller_id"`
	Amount         int64            `json:"amount"`     // Requested gross, KES cents
	FeeAmount      int64            `json:"fee_amount"` // KES cents
	NetPayout      int64            `json:"net_payout"` // Amount - FeeAmount, KES cents
	PhoneNumber    string           `json:"phone_number"`
	Status         WithdrawalStatus `json:"status"`
	TrackingID     *string          `json:"tracking_id,omitempty"`    // Provider reference, set on success
	ProviderError  *string          `json:"provider_error,omitempty"` // Upstream error body, set on failure
	ReversalReason *string          `json:"reversal_reason,omitempty"`
	ReversedAt     *time.Time       `json:"reversed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsFinal reports whether no further transition is possible in any policy.
func (w *Withdrawal) IsFinal() bool {
	return w.Status == WithdrawalStatusPayoutInitiated ||
		w.Status == WithdrawalStatusPayoutFailedReversed
}
