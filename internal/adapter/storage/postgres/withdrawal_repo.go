package postgres

import (
	"context"
	"errors"
	"fmt"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository. Rows are append-only:
// status moves forward through the state machine via compare-and-set and rows
// are never deleted.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

// Create inserts a new withdrawal record within a transaction.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	query := `INSERT INTO withdrawals
		(id, seller_id, amount, fee_amount, net_payout, phone_number, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.SellerID, w.Amount, w.FeeAmount, w.NetPayout,
		w.PhoneNumber, w.Status, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal by its UUID.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	query := `SELECT id, seller_id, amount, fee_amount, net_payout, phone_number, status,
		tracking_id, provider_error, reversal_reason, reversed_at, created_at, updated_at
		FROM withdrawals WHERE id = $1`

	w := &domain.Withdrawal{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.SellerID, &w.Amount, &w.FeeAmount, &w.NetPayout, &w.PhoneNumber, &w.Status,
		&w.TrackingID, &w.ProviderError, &w.ReversalReason, &w.ReversedAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal by id: %w", err)
	}
	return w, nil
}

// UpdateStatus moves the record to status if its current status is one of
// from. Optional fields are written only when set, so a transition never
// clears data written by an earlier one. Zero rows matched means someone else
// already moved the record: ports.ErrStaleTransition.
func (r *WithdrawalRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.WithdrawalStatus, status domain.WithdrawalStatus, fields ports.WithdrawalUpdate) error {
	query := `UPDATE withdrawals SET
			status = $1,
			tracking_id = COALESCE($2, tracking_id),
			provider_error = COALESCE($3, provider_error),
			reversal_reason = COALESCE($4, reversal_reason),
			reversed_at = COALESCE($5, reversed_at),
			updated_at = NOW()
		WHERE id = $6 AND status = ANY($7)`

	fromStr := make([]string, len(from))
	for i, s := range from {
		fromStr[i] = string(s)
	}

	tag, err := tx.Exec(ctx, query,
		status, fields.TrackingID, fields.ProviderError,
		fields.ReversalReason, fields.ReversedAt, id, fromStr,
	)
	if err != nil {
		return fmt.Errorf("update withdrawal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrStaleTransition
	}
	return nil
}

// SumPendingBySeller returns the gross total of the seller's PENDING_PAYOUT
// withdrawals within the transaction.
func (r *WithdrawalRepo) SumPendingBySeller(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM withdrawals
		WHERE seller_id = $1 AND status = $2`

	var total int64
	err := tx.QueryRow(ctx, query, sellerID, domain.WithdrawalStatusPendingPayout).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum pending withdrawals: %w", err)
	}
	return total, nil
}
