package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seller-payout-service/internal/core/domain"
	"seller-payout-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Seller Repo ---

type inMemorySellerRepo struct {
	mu      sync.RWMutex
	sellers map[uuid.UUID]*domain.Seller
}

func newInMemorySellerRepo() *inMemorySellerRepo {
	return &inMemorySellerRepo{sellers: make(map[uuid.UUID]*domain.Seller)}
}

func (r *inMemorySellerRepo) Create(ctx context.Context, s *domain.Seller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sellers[s.ID] = &cp
	return nil
}

func (r *inMemorySellerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sellers[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *inMemorySellerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Seller, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemorySellerRepo) UpdateRevenue(ctx context.Context, tx pgx.Tx, id uuid.UUID, revenue int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sellers[id]
	if !ok {
		return fmt.Errorf("seller not found")
	}
	s.Revenue = revenue
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemorySellerRepo) revenue(id uuid.UUID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.sellers[id]; ok {
		return s.Revenue
	}
	return 0
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order // keyed by invoice id
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *inMemoryOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.InvoiceID] = &cp
	return nil
}

func (r *inMemoryOrderRepo) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[invoiceID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) ListPaidBySeller(ctx context.Context, sellerID uuid.UUID) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Order
	for _, o := range r.orders {
		if o.Status != domain.PaymentStatusPaid {
			continue
		}
		for _, it := range o.LineItems() {
			if it.SellerID == sellerID {
				result = append(result, *o)
				break
			}
		}
	}
	return result, nil
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, invoiceID string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[invoiceID]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu          sync.RWMutex
	withdrawals map[uuid.UUID]*domain.Withdrawal
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{withdrawals: make(map[uuid.UUID]*domain.Withdrawal)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.withdrawals[w.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from []domain.WithdrawalStatus, status domain.WithdrawalStatus, fields ports.WithdrawalUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return ports.ErrStaleTransition
	}
	matched := false
	for _, f := range from {
		if w.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return ports.ErrStaleTransition
	}
	w.Status = status
	if fields.TrackingID != nil {
		w.TrackingID = fields.TrackingID
	}
	if fields.ProviderError != nil {
		w.ProviderError = fields.ProviderError
	}
	if fields.ReversalReason != nil {
		w.ReversalReason = fields.ReversalReason
	}
	if fields.ReversedAt != nil {
		w.ReversedAt = fields.ReversedAt
	}
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWithdrawalRepo) SumPendingBySeller(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, w := range r.withdrawals {
		if w.SellerID == sellerID && w.Status == domain.WithdrawalStatusPendingPayout {
			total += w.Amount
		}
	}
	return total, nil
}

func (r *inMemoryWithdrawalRepo) statusOf(id uuid.UUID) domain.WithdrawalStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.withdrawals[id]; ok {
		return w.Status
	}
	return ""
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu      sync.RWMutex
	ledgers map[uuid.UUID]*domain.SellerLedger
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{ledgers: make(map[uuid.UUID]*domain.SellerLedger)}
}

func (r *inMemoryLedgerRepo) GetBySeller(ctx context.Context, sellerID uuid.UUID) (*domain.SellerLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[sellerID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *inMemoryLedgerRepo) GetBySellerForUpdate(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID) (*domain.SellerLedger, error) {
	return r.GetBySeller(ctx, sellerID)
}

func (r *inMemoryLedgerRepo) Increment(ctx context.Context, tx pgx.Tx, sellerID uuid.UUID, amount int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[sellerID]
	if !ok {
		l = &domain.SellerLedger{SellerID: sellerID}
		r.ledgers[sellerID] = l
	}
	l.TotalWithdrawn += amount
	l.LastWithdrawalAt = &at
	return nil
}

func (r *inMemoryLedgerRepo) totalWithdrawn(sellerID uuid.UUID) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.ledgers[sellerID]; ok {
		return l.TotalWithdrawn
	}
	return 0
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transactional sections with a single mutex,
// standing in for SERIALIZABLE isolation. Closures run at most once; there is
// nothing to retry.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

func (t *inMemoryTransactor) WithinSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(&noopTx{})
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
