package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artho-wallet-ledger/internal/config"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier supports database operations for both pool and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)
var _ Querier = (pgx.Tx)(nil)

// txBeginner is the part of the pool ExecuteTx needs
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RetryPolicy bounds how often ExecuteTx re-runs a transaction that lost a
// serialization conflict or was picked as a deadlock victim
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

type PostgresDB struct {
	pool     *pgxpool.Pool
	beginner txBeginner
	retry    RetryPolicy
	logger   *slog.Logger
}

func NewPostgresDB(ctx context.Context, logger *slog.Logger, cfg *config.PostgresConfig) (*PostgresDB, error) {
	if err := RunMigrations(cfg.URL, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("Connected to PostgreSQL")

	return &PostgresDB{
		pool:     pool,
		beginner: pool,
		logger:   logger,
	}, nil
}

// WithRetryPolicy sets how ExecuteTx retries retryable failures
func (db *PostgresDB) WithRetryPolicy(policy RetryPolicy) *PostgresDB {
	db.retry = policy
	return db
}

func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("Closed PostgreSQL connection")
}

// ExecuteTx runs fn in a transaction, rolling back on error or panic. Serialization
// failures and deadlocks re-run fn from the start with exponential backoff; every
// other error is returned as is. When ctx ends between attempts its error is returned.
func (db *PostgresDB) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if db.retry.MaxRetries <= 0 {
		return db.executeOnce(ctx, fn)
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := db.executeOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if IsRetryable(err) {
			db.logger.Warn("Retrying transaction after conflict", "attempt", attempt, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(db.newBackOff(), uint64(db.retry.MaxRetries)), ctx)
	return backoff.Retry(operation, policy)
}

func (db *PostgresDB) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = db.retry.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxInterval = 16 * db.retry.BaseDelay
	b.MaxElapsedTime = 0
	return b
}

func (db *PostgresDB) executeOnce(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
