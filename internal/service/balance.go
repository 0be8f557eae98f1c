package service

import (
	"context"
	"fmt"

	"seller-payout-service/internal/core/ports"
	"seller-payout-service/pkg/apperror"

	"github.com/google/uuid"
)

// StoredBalanceResolver treats the seller's revenue counter as authoritative.
// The counter is deducted atomically with the withdrawal write, so this
// resolver alone is only a fast-path check; the transaction re-reads it.
type StoredBalanceResolver struct {
	sellers ports.SellerRepository
}

// NewStoredBalanceResolver creates a resolver backed by the revenue counter.
func NewStoredBalanceResolver(sellers ports.SellerRepository) *StoredBalanceResolver {
	return &StoredBalanceResolver{sellers: sellers}
}

// Resolve returns the stored revenue in cents. A missing seller resolves to 0.
func (r *StoredBalanceResolver) Resolve(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	seller, err := r.sellers.GetByID(ctx, sellerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get seller: %w", err))
	}
	if seller == nil {
		return 0, nil
	}
	return seller.Revenue, nil
}

// AggregateBalanceResolver computes the balance live: the seller's share of
// every PAID order minus the ledger's withdrawn total. Immune to drift in the
// stored counter, at the cost of a scan per request.
type AggregateBalanceResolver struct {
	orders  ports.OrderRepository
	ledgers ports.LedgerRepository
}

// NewAggregateBalanceResolver creates a resolver that aggregates paid orders.
func NewAggregateBalanceResolver(orders ports.OrderRepository, ledgers ports.LedgerRepository) *AggregateBalanceResolver {
	return &AggregateBalanceResolver{orders: orders, ledgers: ledgers}
}

// Resolve returns lifetime paid revenue minus total withdrawn, in cents.
// A seller with no orders resolves to 0.
func (r *AggregateBalanceResolver) Resolve(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	orders, err := r.orders.ListPaidBySeller(ctx, sellerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("list paid orders: %w", err))
	}

	var revenue int64
	for i := range orders {
		revenue += orders[i].SellerRevenue(sellerID)
	}

	ledger, err := r.ledgers.GetBySeller(ctx, sellerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get seller ledger: %w", err))
	}
	if ledger != nil {
		revenue -= ledger.TotalWithdrawn
	}
	return revenue, nil
}
