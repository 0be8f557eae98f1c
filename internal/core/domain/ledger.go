package domain

import (
	"time"

	"github.com/google/uuid"
)

// SellerLedger accumulates a seller's lifetime withdrawn total. Under the
// aggregate balance policy it is incremented only by confirmed payout
// successes and never decremented; under the stored-counter policy it is
// maintained alongside the revenue counter for reporting.
type SellerLedger struct {
	SellerID         uuid.UUID  `json:"seller_id"`
	TotalWithdrawn   int64      `json:"total_withdrawn"` // KES cents, monotonically increasing
	LastWithdrawalAt *time.Time `json:"last_withdrawal_at,omitempty"`
}
