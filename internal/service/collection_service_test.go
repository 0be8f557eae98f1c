package service

import (
	"context"
	"errors"
	"testing"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInitiateCharge(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	gateway := mocks.NewMockCollectionGateway(ctrl)
	svc := NewCollectionService(orders, gateway, zerolog.Nop())

	buyerID := uuid.New()
	items := []byte(`[{"sellerId":"` + uuid.NewString() + `","price":500,"quantity":1}]`)

	gateway.EXPECT().Charge(gomock.Any(), "254712345678", int64(50_000), gomock.Any()).
		Return("INV-42", nil)
	orders.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, o *domain.Order) error {
			assert.Equal(t, "INV-42", o.InvoiceID)
			assert.Equal(t, buyerID, o.BuyerID)
			assert.Equal(t, domain.PaymentStatusPending, o.Status)
			return nil
		})

	invoiceID, err := svc.InitiateCharge(context.Background(), buyerID, "254712345678", 50_000, items)
	require.NoError(t, err)
	assert.Equal(t, "INV-42", invoiceID)
}

func TestInitiateCharge_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	gateway := mocks.NewMockCollectionGateway(ctrl)
	svc := NewCollectionService(orders, gateway, zerolog.Nop())

	_, err := svc.InitiateCharge(context.Background(), uuid.New(), "0712345678", 50_000, nil)
	assert.Equal(t, "VAL_002", appErrCode(t, err))

	_, err = svc.InitiateCharge(context.Background(), uuid.New(), "254712345678", 0, nil)
	assert.Equal(t, "VAL_001", appErrCode(t, err))
}

func TestInitiateCharge_ProviderRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	gateway := mocks.NewMockCollectionGateway(ctrl)
	svc := NewCollectionService(orders, gateway, zerolog.Nop())

	gateway.EXPECT().Charge(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("unauthorized"))

	// No order is recorded when the charge never started.
	_, err := svc.InitiateCharge(context.Background(), uuid.New(), "254712345678", 50_000, nil)
	assert.Equal(t, "GW_003", appErrCode(t, err))
}

func TestGetOrderByInvoice(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	gateway := mocks.NewMockCollectionGateway(ctrl)
	svc := NewCollectionService(orders, gateway, zerolog.Nop())

	orders.EXPECT().GetByInvoiceID(gomock.Any(), "INV-42").
		Return(&domain.Order{InvoiceID: "INV-42", Status: domain.PaymentStatusPaid}, nil)

	order, err := svc.GetOrderByInvoice(context.Background(), "INV-42")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.Status)

	orders.EXPECT().GetByInvoiceID(gomock.Any(), "INV-404").Return(nil, nil)
	_, err = svc.GetOrderByInvoice(context.Background(), "INV-404")
	assert.Equal(t, "WDR_004", appErrCode(t, err))
}
