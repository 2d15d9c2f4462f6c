package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kovalev70/sandbox-connector/internal/core/port"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgDB is an executor that can also open a transaction: *pgxpool.Pool, pgx.Tx
// (as a savepoint) and pgxmock pools all satisfy it.
type pgDB interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// runInTx executes fn inside a single transaction. fn's writes are committed
// together or rolled back together.
func runInTx(ctx context.Context, db pgDB, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Store wraps the pgx pool backing one started connector.
type Store struct {
	pool  *pgxpool.Pool
	repos port.Repositories
}

// NewStore wires the repositories on top of an open pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		repos: port.Repositories{
			Users:       NewUserRepository(pool),
			Permissions: NewPermissionRepository(pool),
		},
	}
}

// Repositories returns the repositories bound to the store's pool.
func (s *Store) Repositories() port.Repositories {
	return s.repos
}

// Close releases resources associated with the store.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

var _ port.Session = (*Store)(nil)
