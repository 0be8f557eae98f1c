package service

import (
	"context"
	"fmt"
	"time"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports"
	"seller-payout-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CollectionServiceImpl is thin glue around the provider's collection API:
// initiate an STK push, record the pending order, let the checkout flow's
// callback move it to PAID. The withdrawal core only ever reads orders.
type CollectionServiceImpl struct {
	orders     ports.OrderRepository
	collection ports.CollectionGateway
	log        zerolog.Logger
}

// NewCollectionService creates a new CollectionServiceImpl.
func NewCollectionService(orders ports.OrderRepository, collection ports.CollectionGateway, log zerolog.Logger) *CollectionServiceImpl {
	return &CollectionServiceImpl{orders: orders, collection: collection, log: log}
}

// InitiateCharge starts a mobile-money charge and records the pending order
// keyed by the provider's invoice id.
func (s *CollectionServiceImpl) InitiateCharge(ctx context.Context, buyerID uuid.UUID, phoneNumber string, amountCents int64, items []byte) (string, error) {
	if !phoneRe.MatchString(phoneNumber) {
		return "", apperror.ErrInvalidPhoneNumber()
	}
	if amountCents <= 0 {
		return "", apperror.Validation("amount must be a positive number")
	}

	apiRef := fmt.Sprintf("ORDER-%s-%d", buyerID.String()[:8], time.Now().UnixMilli())
	invoiceID, err := s.collection.Charge(ctx, phoneNumber, amountCents, apiRef)
	if err != nil {
		return "", apperror.ErrCollectionProvider(err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		BuyerID:   buyerID,
		RawItems:  items,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return "", apperror.InternalError(fmt.Errorf("record pending order: %w", err))
	}

	s.log.Info().
		Str("invoice_id", invoiceID).
		Str("buyer_id", buyerID.String()).
		Int64("amount", amountCents).
		Msg("collection charge initiated")

	return invoiceID, nil
}

// GetOrderByInvoice looks up an order by provider invoice id.
func (s *CollectionServiceImpl) GetOrderByInvoice(ctx context.Context, invoiceID string) (*domain.Order, error) {
	order, err := s.orders.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return order, nil
}
