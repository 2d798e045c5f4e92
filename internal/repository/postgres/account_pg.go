// internal/repository/postgres/account_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/util"
)

// accountRepo implements repository.AccountRepository for PostgreSQL.
type accountRepo struct {
	q executor
}

// CreateAccount inserts a new account. A unique index on username turns a
// duplicate insert into util.ErrDuplicateUsername.
func (r *accountRepo) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, username, credit_card_number, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query,
		account.ID, account.Username, account.CreditCardNumber, account.Balance,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return util.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByUsername retrieves an account by its username.
func (r *accountRepo) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, username, credit_card_number, balance, created_at, updated_at
              FROM accounts WHERE username = $1`
	err := r.q.GetContext(ctx, &account, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account '%s': %w", username, err)
	}
	return &account, nil
}

// UpdateBalance applies delta to the account's balance. The balance check
// constraint keeps a concurrent writer from driving it negative.
func (r *accountRepo) UpdateBalance(ctx context.Context, username string, delta decimal.Decimal) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE username = $3`
	result, err := r.q.ExecContext(ctx, query, delta, time.Now().UTC(), username)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" { // check_violation
			return util.ErrInsufficientBalance
		}
		return fmt.Errorf("failed to update balance for '%s': %w", username, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for '%s': %w", username, err)
	}
	if rowsAffected == 0 {
		return util.ErrAccountNotFound
	}
	return nil
}

// SetCreditCard links a card to the account. The WHERE clause refuses to
// overwrite an existing card.
func (r *accountRepo) SetCreditCard(ctx context.Context, username, cardNumber string) error {
	query := `UPDATE accounts SET credit_card_number = $1, updated_at = $2
              WHERE username = $3 AND credit_card_number IS NULL`
	result, err := r.q.ExecContext(ctx, query, cardNumber, time.Now().UTC(), username)
	if err != nil {
		return fmt.Errorf("failed to set credit card for '%s': %w", username, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for '%s': %w", username, err)
	}
	if rowsAffected == 0 {
		// Either the account does not exist or a card is already set.
		var existing string
		checkQuery := `SELECT username FROM accounts WHERE username = $1`
		if err := r.q.GetContext(ctx, &existing, checkQuery, username); err != nil {
			if err == sql.ErrNoRows {
				return util.ErrAccountNotFound
			}
			return fmt.Errorf("failed to check account '%s': %w", username, err)
		}
		return util.ErrCardAlreadySet
	}
	return nil
}
