package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"seller-payout-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializableOpts() pgx.TxOptions {
	return pgx.TxOptions{IsoLevel: pgx.Serializable}
}

func TestWithinSerializable_Commits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(serializableOpts())
	mock.ExpectCommit()

	tr := NewTransactor(mock, 3, time.Millisecond, zerolog.Nop())
	var calls int
	err = tr.WithinSerializable(context.Background(), func(tx pgx.Tx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinSerializable_RetriesOnConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(serializableOpts())
	mock.ExpectRollback()
	mock.ExpectBeginTx(serializableOpts())
	mock.ExpectCommit()

	tr := NewTransactor(mock, 3, time.Millisecond, zerolog.Nop())
	var calls int
	err = tr.WithinSerializable(context.Background(), func(tx pgx.Tx) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinSerializable_ExhaustsRetries(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// maxRetries=2 means three attempts total.
	for range 3 {
		mock.ExpectBeginTx(serializableOpts())
		mock.ExpectRollback()
	}

	tr := NewTransactor(mock, 2, time.Millisecond, zerolog.Nop())
	var calls int
	err = tr.WithinSerializable(context.Background(), func(tx pgx.Tx) error {
		calls++
		return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	})
	assert.ErrorIs(t, err, ports.ErrSerializationFailure)
	assert.Equal(t, 3, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinSerializable_BusinessErrorNotRetried(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(serializableOpts())
	mock.ExpectRollback()

	tr := NewTransactor(mock, 3, time.Millisecond, zerolog.Nop())
	boom := errors.New("insufficient balance")
	var calls int
	err = tr.WithinSerializable(context.Background(), func(tx pgx.Tx) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
