package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerColumns() []string {
	return []string{"seller_id", "total_withdrawn", "last_withdrawal_at"}
}

func TestLedgerRepo_GetBySeller(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	sellerID := uuid.New()
	at := time.Now().UTC().Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM seller_ledgers WHERE seller_id").
		WithArgs(sellerID).
		WillReturnRows(pgxmock.NewRows(ledgerColumns()).AddRow(sellerID, int64(30_000), &at))

	l, err := repo.GetBySeller(context.Background(), sellerID)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, int64(30_000), l.TotalWithdrawn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetBySeller_NoRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM seller_ledgers WHERE seller_id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(ledgerColumns()))

	l, err := repo.GetBySeller(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetBySellerForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	sellerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seller_ledgers WHERE seller_id = .+ FOR UPDATE").
		WithArgs(sellerID).
		WillReturnRows(pgxmock.NewRows(ledgerColumns()).AddRow(sellerID, int64(10_000), (*time.Time)(nil)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	l, err := repo.GetBySellerForUpdate(context.Background(), tx, sellerID)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, int64(10_000), l.TotalWithdrawn)
	assert.Nil(t, l.LastWithdrawalAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_Increment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	sellerID := uuid.New()
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO seller_ledgers .+ ON CONFLICT").
		WithArgs(sellerID, int64(50_000), at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Increment(context.Background(), tx, sellerID, 50_000, at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
