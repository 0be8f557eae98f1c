package postgres

import (
	"context"
	"errors"
	"fmt"

	"seller-payout-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository. Line items live in a JSONB
// column exactly as the checkout wrote them; normalization happens in the
// domain layer.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts a new order into the database.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (id, invoice_id, buyer_id, items, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.InvoiceID, o.BuyerID, o.RawItems, o.Status, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByInvoiceID fetches an order by the provider's invoice id.
func (r *OrderRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Order, error) {
	query := `SELECT id, invoice_id, buyer_id, items, status, created_at, updated_at
		FROM orders WHERE invoice_id = $1`

	o := &domain.Order{}
	err := r.pool.QueryRow(ctx, query, invoiceID).Scan(
		&o.ID, &o.InvoiceID, &o.BuyerID, &o.RawItems, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by invoice id: %w", err)
	}
	return o, nil
}

// ListPaidBySeller returns every PAID order containing a line item for the
// seller. The JSONB containment filter covers the list shape; the legacy map
// and bare-object shapes are rare enough to fetch via the text fallback.
func (r *OrderRepo) ListPaidBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Order, error) {
	query := `SELECT id, invoice_id, buyer_id, items, status, created_at, updated_at
		FROM orders
		WHERE status = $1 AND (items @> $2 OR items::text LIKE $3)
		ORDER BY created_at`

	contains := fmt.Sprintf(`[{"sellerId": %q}]`, sellerID)
	fallback := fmt.Sprintf(`%%%q%%`, sellerID)

	rows, err := r.pool.Query(ctx, query, domain.PaymentStatusPaid, contains, fallback)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.InvoiceID, &o.BuyerID, &o.RawItems, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to the given payment status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, invoiceID string, status domain.PaymentStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE invoice_id = $2`

	tag, err := r.pool.Exec(ctx, query, status, invoiceID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", invoiceID)
	}
	return nil
}
