package ports

import (
	"context"
	"fmt"
	"time"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
)

// BalanceResolver computes a seller's withdrawable balance in KES cents.
type BalanceResolver interface {
	Resolve(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// FeePolicy maps a requested gross amount to the fee and net payout, all in
// KES cents. Pure and deterministic; fee + net always equals amount.
type FeePolicy interface {
	Compute(amountCents int64) (feeCents, netCents int64)
}

// ProviderError carries the upstream payout gateway failure.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payout provider returned %d: %s", e.StatusCode, e.Body)
}

// PayoutGateway disburses funds to a mobile-money account. Implementations
// make exactly one outbound call per invocation and never retry.
type PayoutGateway interface {
	Disburse(ctx context.Context, phoneNumber string, netCents int64, reference string) (trackingID string, err error)
}

// CollectionGateway initiates mobile-money charges (STK push). Thin glue
// around the provider's collection API.
type CollectionGateway interface {
	Charge(ctx context.Context, phoneNumber string, amountCents int64, apiRef string) (invoiceID string, err error)
}

// PINVerifier checks a withdrawal PIN against its stored hash.
type PINVerifier interface {
	Hash(pin string) (string, error)
	Verify(pin string, hash string) (bool, error)
}

// InFlightGuard serialises withdrawal attempts per seller at the edge. It is
// advisory: implementations may degrade to always-allow when the backing
// store is unavailable.
type InFlightGuard interface {
	// Acquire returns true if no other withdrawal is in flight for the seller.
	Acquire(ctx context.Context, sellerID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, sellerID string) error
}

// Notifier delivers withdrawal lifecycle events (email relay). Best-effort.
type Notifier interface {
	NotifyWithdrawal(ctx context.Context, w *domain.Withdrawal) error
}

// --- Service Ports (Business Logic) ---

// WithdrawRequest holds validated input for the withdrawal flow.
type WithdrawRequest struct {
	SellerID    uuid.UUID
	Amount      int64 // Gross, KES cents
	PhoneNumber string
	PIN         string // Empty when the seller has no PIN configured
}

// WithdrawResult is returned to the caller on success.
type WithdrawResult struct {
	WithdrawalID    uuid.UUID
	RequestedAmount int64
	Fee             int64
	NetPayout       int64
	TrackingID      string
}

// WithdrawalService is the end-to-end withdrawal orchestrator.
type WithdrawalService interface {
	Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawResult, error)
	GetWithdrawal(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
}

// CollectionService is the thin charge-initiation flow.
type CollectionService interface {
	InitiateCharge(ctx context.Context, buyerID uuid.UUID, phoneNumber string, amountCents int64, items []byte) (invoiceID string, err error)
	GetOrderByInvoice(ctx context.Context, invoiceID string) (*domain.Order, error)
}
