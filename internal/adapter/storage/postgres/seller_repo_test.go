package postgres

import (
	"context"
	"testing"
	"time"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSeller() *domain.Seller {
	return &domain.Seller{
		ID:        uuid.New(),
		Email:     "seller@example.com",
		Revenue:   100_000,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func sellerColumns() []string {
	return []string{"id", "email", "revenue", "pin_hash", "created_at", "updated_at"}
}

func sellerRow(s *domain.Seller) *pgxmock.Rows {
	return pgxmock.NewRows(sellerColumns()).AddRow(
		s.ID, s.Email, s.Revenue, s.PINHash, s.CreatedAt, s.UpdatedAt,
	)
}

func TestSellerRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)
	s := newTestSeller()

	mock.ExpectExec("INSERT INTO sellers").
		WithArgs(s.ID, s.Email, s.Revenue, s.PINHash, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)
	s := newTestSeller()

	mock.ExpectQuery("SELECT .+ FROM sellers WHERE id").
		WithArgs(s.ID).
		WillReturnRows(sellerRow(s))

	result, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.ID, result.ID)
	assert.Equal(t, int64(100_000), result.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM sellers WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(sellerColumns()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)
	s := newTestSeller()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM sellers WHERE id = .+ FOR UPDATE").
		WithArgs(s.ID).
		WillReturnRows(sellerRow(s))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, s.Revenue, result.Revenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerRepo_UpdateRevenue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sellers SET revenue").
		WithArgs(int64(50_000), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateRevenue(context.Background(), tx, id, 50_000)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSellerRepo_UpdateRevenue_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSellerRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sellers SET revenue").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateRevenue(context.Background(), tx, uuid.New(), 50_000)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
