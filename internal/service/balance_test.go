package service

import (
	"context"
	"errors"
	"testing"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStoredBalanceResolver(t *testing.T) {
	ctrl := gomock.NewController(t)
	sellers := mocks.NewMockSellerRepository(ctrl)
	r := NewStoredBalanceResolver(sellers)

	sellerID := uuid.New()
	sellers.EXPECT().GetByID(gomock.Any(), sellerID).
		Return(&domain.Seller{ID: sellerID, Revenue: 123_45}, nil)

	balance, err := r.Resolve(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(123_45), balance)
}

func TestStoredBalanceResolver_MissingSeller(t *testing.T) {
	ctrl := gomock.NewController(t)
	sellers := mocks.NewMockSellerRepository(ctrl)
	r := NewStoredBalanceResolver(sellers)

	sellers.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(nil, nil)

	balance, err := r.Resolve(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestAggregateBalanceResolver(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	ledgers := mocks.NewMockLedgerRepository(ctrl)
	r := NewAggregateBalanceResolver(orders, ledgers)

	sellerID := uuid.New()
	other := uuid.New()

	paid := []domain.Order{
		paidOrderFor(sellerID, 60_000),
		paidOrderFor(sellerID, 40_000),
		paidOrderFor(other, 99_900), // other seller's line, ignored
	}
	orders.EXPECT().ListPaidBySeller(gomock.Any(), sellerID).Return(paid, nil)
	ledgers.EXPECT().GetBySeller(gomock.Any(), sellerID).
		Return(&domain.SellerLedger{SellerID: sellerID, TotalWithdrawn: 30_000}, nil)

	balance, err := r.Resolve(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(70_000), balance)
}

func TestAggregateBalanceResolver_NoLedgerRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	ledgers := mocks.NewMockLedgerRepository(ctrl)
	r := NewAggregateBalanceResolver(orders, ledgers)

	sellerID := uuid.New()
	orders.EXPECT().ListPaidBySeller(gomock.Any(), sellerID).
		Return([]domain.Order{paidOrderFor(sellerID, 25_000)}, nil)
	ledgers.EXPECT().GetBySeller(gomock.Any(), sellerID).Return(nil, nil)

	balance, err := r.Resolve(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Equal(t, int64(25_000), balance)
}

func TestAggregateBalanceResolver_NoOrders(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	ledgers := mocks.NewMockLedgerRepository(ctrl)
	r := NewAggregateBalanceResolver(orders, ledgers)

	sellerID := uuid.New()
	orders.EXPECT().ListPaidBySeller(gomock.Any(), sellerID).Return(nil, nil)
	ledgers.EXPECT().GetBySeller(gomock.Any(), sellerID).Return(nil, nil)

	balance, err := r.Resolve(context.Background(), sellerID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestAggregateBalanceResolver_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	orders := mocks.NewMockOrderRepository(ctrl)
	ledgers := mocks.NewMockLedgerRepository(ctrl)
	r := NewAggregateBalanceResolver(orders, ledgers)

	orders.EXPECT().ListPaidBySeller(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	_, err := r.Resolve(context.Background(), uuid.New())
	assert.Equal(t, "SYS_001", appErrCode(t, err))
}
