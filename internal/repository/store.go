package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository/sqlc"
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	maxTxAttempts = 3
)

// Store is the persistence surface used by services. Every multi-step
// mutation goes through ExecTx so it commits or rolls back as a unit.
type Store interface {
	sqlc.Querier
	ExecTx(ctx context.Context, fn func(q sqlc.Querier) error) error
}

type PgStore struct {
	*sqlc.Queries
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{Queries: sqlc.New(pool), pool: pool}
}

// ExecTx runs fn inside a transaction. Serialization failures and deadlocks
// are retried; whatever conflict remains is reported as ErrTransactionConflict.
func (s *PgStore) ExecTx(ctx context.Context, fn func(q sqlc.Querier) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return fn(s.Queries.WithTx(tx))
		})
		if !isRetryable(err) {
			break
		}
		slog.Debug("retrying transaction", "attempt", attempt, "error", err)
	}

	if isConflict(err) {
		return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
	}
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

func isConflict(err error) bool {
	switch pgCode(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
		return true
	}
	return false
}

// IsForeignKeyViolation reports whether err is a referential integrity failure,
// which services treat as a vanished parent row.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// IsUniqueViolation reports whether err is a unique constraint failure.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}
