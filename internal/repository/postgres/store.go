// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"peerpay/internal/repository"
)

// executor defines the database operations the repositories need.
// Both *sqlx.DB and *sqlx.Tx implement these methods, so the same
// repository code runs inside and outside a transaction.
type executor interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the PostgreSQL storage backend.
type Store struct {
	db *sqlx.DB // nil when the Store wraps an open transaction
	q  executor
}

// NewStore creates a Store over an established database connection.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Accounts() repository.AccountRepository    { return &accountRepo{q: s.q} }
func (s *Store) Activities() repository.ActivityRepository { return &activityRepo{q: s.q} }
func (s *Store) Friends() repository.FriendRepository      { return &friendRepo{q: s.q} }

// WithinTx runs fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise. Nested calls reuse the open
// transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	if s.db == nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, &Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
