package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Transactor runs a unit of work in one transaction, re-running it when Postgres
// aborts the transaction with a serialization failure or a deadlock.
type Transactor struct {
	pool     *pgxpool.Pool
	attempts int
}

func NewTransactor(pool *pgxpool.Pool, attempts int) *Transactor {
	if attempts <= 0 {
		attempts = 3
	}
	return &Transactor{pool: pool, attempts: attempts}
}

func (t *Transactor) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	var err error
	for attempt := 0; attempt < t.attempts; attempt++ {
		err = WithTx(ctx, t.pool, fn)
		if err == nil || !IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// IsTransient reports whether the transaction can be retried as a whole.
func IsTransient(err error) bool {
	return hasCode(err, codeSerializationFailure) || hasCode(err, codeDeadlockDetected)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
