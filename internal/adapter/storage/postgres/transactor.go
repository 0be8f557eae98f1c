package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seller-payout-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes Postgres raises when a serializable transaction must be
// retried by the client.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// Transactor implements ports.DBTransactor. WithinSerializable retries the
// closure on write-conflicts with exponential backoff, so the closure must be
// safe to run more than once.
type Transactor struct {
	pool       Pool
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool, maxRetries int, backoff time.Duration, log zerolog.Logger) *Transactor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}
	return &Transactor{pool: pool, maxRetries: maxRetries, backoff: backoff, log: log}
}

// Begin starts a new database transaction at the default isolation level.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}

// WithinSerializable runs fn inside a SERIALIZABLE transaction. Conflicting
// transactions are rolled back and replayed up to maxRetries times; exhaustion
// surfaces ports.ErrSerializationFailure.
func (t *Transactor) WithinSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	delay := t.backoff
	for attempt := 0; ; attempt++ {
		err := t.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		if attempt >= t.maxRetries {
			return fmt.Errorf("%w after %d attempts: %v", ports.ErrSerializationFailure, attempt+1, err)
		}

		t.log.Debug().
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("serializable transaction conflict, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (t *Transactor) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin serializable tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit serializable tx: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}
