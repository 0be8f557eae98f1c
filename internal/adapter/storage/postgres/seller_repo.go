package postgres

import (
	"context"
	"errors"
	"fmt"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SellerRepo implements ports.SellerRepository.
type SellerRepo struct {
	pool Pool
}

// NewSellerRepo creates a new SellerRepo.
func NewSellerRepo(pool Pool) *SellerRepo {
	return &SellerRepo{pool: pool}
}

// Create inserts a new seller into the database.
func (r *SellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	query := `INSERT INTO sellers (id, email, revenue, pin_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.Email, s.Revenue, s.PINHash, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetByID fetches a seller by its UUID (without locking).
func (r *SellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	query := `SELECT id, email, revenue, pin_hash, created_at, updated_at
		FROM sellers WHERE id = $1`

	s := &domain.Seller{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Email, &s.Revenue, &s.PINHash, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller by id: %w", err)
	}
	return s, nil
}

// GetByIDForUpdate fetches a seller by ID with a row lock.
// This MUST be called within a transaction.
func (r *SellerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error) {
	query := `SELECT id, email, revenue, pin_hash, created_at, updated_at
		FROM sellers WHERE id = $1 FOR UPDATE`

	s := &domain.Seller{}
	err := tx.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Email, &s.Revenue, &s.PINHash, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller for update: %w", err)
	}
	return s, nil
}

// UpdateRevenue sets the seller's revenue counter within a transaction.
func (r *SellerRepo) UpdateRevenue(ctx context.Context, tx pgx.Tx, id uuid.UUID, revenue int64) error {
	query := `UPDATE sellers SET revenue = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, revenue, id)
	if err != nil {
		return fmt.Errorf("update seller revenue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seller not found: %s", id)
	}
	return nil
}
