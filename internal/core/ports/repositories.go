package ports

import (
	"context"
	"errors"
	"time"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrStaleTransition is returned by WithdrawalRepository.UpdateStatus when the
// record is no longer in any of the allowed source states. Callers treat it as
// "someone already moved this record", which makes compensation replays no-ops.
var ErrStaleTransition = errors.New("stale withdrawal status transition")

// ErrSerializationFailure is returned by DBTransactor.WithinSerializable when
// the bounded retry budget is exhausted by write-conflicts. Surfaced to
// clients as a transient failure, distinct from business rejections.
var ErrSerializationFailure = errors.New("serializable transaction retries exhausted")

// SellerRepository defines persistence operations for seller accounts.
// Methods accepting pgx.Tx run inside a serializable transaction block.
type SellerRepository interface {
	Create(ctx context.Context, seller *domain.Seller) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error)
	UpdateRevenue(ctx context.Context, tx pgx.Tx, id uuid.UUID, revenue int64) error
}

// OrderRepository defines persistence operations for orders. Orders are
// written by the checkout flow; this core reads them for balance aggregation
// and invoice lookup, and creates the pending record for collection charges.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Order, error)
	ListPaidBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, invoiceID string, status domain.PaymentStatus) error
}

// WithdrawalUpdate carries the optional fields written alongside a status
// transition.
type WithdrawalUpdate struct {
	TrackingID     *string
	ProviderError  *string
	ReversalReason *string
	ReversedAt     *time.Time
}

// WithdrawalRepository defines persistence for withdrawal records. Records
// are never deleted; UpdateStatus is a compare-and-set over the allowed
// source states so that replayed transitions become no-ops.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	// UpdateStatus moves the record to status if its current status is one of
	// from. Returns domain's stale-transition sentinel via ErrStaleTransition
	// when no row matched.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.WithdrawalStatus, status domain.WithdrawalStatus, fields WithdrawalUpdate) error
	// SumPendingBySeller returns the gross total of the seller's
	// PENDING_PAYOUT withdrawals, i.e. funds reserved by in-flight requests.
	SumPendingBySeller(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error)
}

// LedgerRepository defines persistence for per-seller withdrawn totals.
type LedgerRepository interface {
	GetBySeller(ctx context.Context, sellerID uuid.UUID) (*domain.SellerLedger, error)
	// GetBySellerForUpdate reads the ledger row inside a transaction with a
	// row lock. Returns nil (no error) when the seller has no ledger yet.
	GetBySellerForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.SellerLedger, error)
	// Increment adds amount to the seller's total_withdrawn, creating the
	// ledger row if absent, and stamps last_withdrawal_at.
	Increment(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64, at time.Time) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	// WithinSerializable runs fn inside a SERIALIZABLE transaction, retrying
	// the whole closure on write-conflict with exponential backoff. Any error
	// returned by fn aborts and rolls back. The closure must be free of
	// external side effects: it can run more than once.
	WithinSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error
}
