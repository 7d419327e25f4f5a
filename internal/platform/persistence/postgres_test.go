package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T, policy RetryPolicy) (*PostgresDB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	db := &PostgresDB{
		beginner: mock,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return db.WithRetryPolicy(policy), mock
}

const touchSQL = `UPDATE accounts SET updated_at = NOW\(\)`

func touch(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, "UPDATE accounts SET updated_at = NOW()")
	return err
}

func TestExecuteTx_Commits(t *testing.T) {
	db, mock := newMockDB(t, RetryPolicy{})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(touchSQL).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := db.ExecuteTx(ctx, func(tx pgx.Tx) error { return touch(ctx, tx) })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t, RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond})
	ctx := context.Background()
	businessErr := errors.New("insufficient funds")

	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	err := db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		calls++
		return businessErr
	})
	assert.ErrorIs(t, err, businessErr)
	assert.Equal(t, 1, calls, "non-retryable errors must not re-run the transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTx_RetriesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t, RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(touchSQL).WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(touchSQL).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := db.ExecuteTx(ctx, func(tx pgx.Tx) error { return touch(ctx, tx) })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTx_GivesUpAfterMaxRetries(t *testing.T) {
	db, mock := newMockDB(t, RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec(touchSQL).WillReturnError(&pgconn.PgError{Code: "40P01"})
		mock.ExpectRollback()
	}

	err := db.ExecuteTx(ctx, func(tx pgx.Tx) error { return touch(ctx, tx) })
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTx_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t, RetryPolicy{})
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := db.ExecuteTx(context.Background(), func(tx pgx.Tx) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestPgErrorClassification(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("failed to insert: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, IsUniqueViolation(wrap("23505")))
	assert.False(t, IsUniqueViolation(wrap("23514")))
	assert.True(t, IsCheckViolation(wrap("23514")))
	assert.True(t, IsRetryable(wrap("40001")))
	assert.True(t, IsRetryable(wrap("40P01")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
