package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// GetBySeller fetches a seller's ledger row (without locking). Returns nil
// when the seller has never withdrawn.
func (r *LedgerRepo) GetBySeller(ctx context.Context, sellerID uuid.UUID) (*domain.SellerLedger, error) {
	query := `SELECT seller_id, total_withdrawn, last_withdrawal_at
		FROM seller_ledgers WHERE seller_id = $1`

	l := &domain.SellerLedger{}
	err := r.pool.QueryRow(ctx, query, sellerID).Scan(&l.SellerID, &l.TotalWithdrawn, &l.LastWithdrawalAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller ledger: %w", err)
	}
	return l, nil
}

// GetBySellerForUpdate fetches the ledger row with a row lock.
// This MUST be called within a transaction.
func (r *LedgerRepo) GetBySellerForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.SellerLedger, error) {
	query := `SELECT seller_id, total_withdrawn, last_withdrawal_at
		FROM seller_ledgers WHERE seller_id = $1 FOR UPDATE`

	l := &domain.SellerLedger{}
	err := tx.QueryRow(ctx, query, sellerID).Scan(&l.SellerID, &l.TotalWithdrawn, &l.LastWithdrawalAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller ledger for update: %w", err)
	}
	return l, nil
}

// Increment adds amount to total_withdrawn, creating the row on first
// withdrawal.
func (r *LedgerRepo) Increment(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64, at time.Time) error {
	query := `INSERT INTO seller_ledgers (seller_id, total_withdrawn, last_withdrawal_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (seller_id) DO UPDATE SET
			total_withdrawn = seller_ledgers.total_withdrawn + EXCLUDED.total_withdrawn,
			last_withdrawal_at = EXCLUDED.last_withdrawal_at`

	_, err := tx.Exec(ctx, query, sellerID, amount, at)
	if err != nil {
		return fmt.Errorf("increment seller ledger: %w", err)
	}
	return nil
}
