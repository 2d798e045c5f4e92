// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
)

// AccountRepository defines the interface for account data operations.
// Accounts are keyed by username, which is unique and immutable.
type AccountRepository interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, account *domain.Account) error
	// GetAccountByUsername retrieves an account, or util.ErrAccountNotFound.
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	// UpdateBalance applies delta (positive or negative) to the account's
	// balance. The resulting balance must never go negative.
	UpdateBalance(ctx context.Context, username string, delta decimal.Decimal) error
	// SetCreditCard links a card number to the account. Callers are
	// responsible for rejecting a second card before calling this.
	SetCreditCard(ctx context.Context, username, cardNumber string) error
}

// ActivityRepository defines the interface for the shared activity log.
type ActivityRepository interface {
	// AppendActivity adds an immutable activity record and assigns its
	// sequence number. One record serves the history of both participants.
	AppendActivity(ctx context.Context, activity *domain.Activity) error
	// ListByAccount returns every activity the account participates in,
	// as actor or as target, newest first (occurred_at desc, seq desc).
	ListByAccount(ctx context.Context, username string) ([]domain.Activity, error)
}

// FriendRepository defines the interface for the symmetric friendship
// relation. A friendship between A and B is one fact, not two.
type FriendRepository interface {
	// AddFriendship records that a and b are friends.
	AddFriendship(ctx context.Context, a, b string) error
	// AreFriends reports whether a friendship exists, in either direction.
	AreFriends(ctx context.Context, a, b string) (bool, error)
	// ListFriends returns the usernames of the account's friends.
	ListFriends(ctx context.Context, username string) ([]string, error)
}

// Store aggregates the repositories over one storage backend.
type Store interface {
	Accounts() AccountRepository
	Activities() ActivityRepository
	Friends() FriendRepository

	// WithinTx executes fn atomically: every mutation made through the
	// Store passed to fn is committed if fn returns nil and discarded if
	// it returns an error. A payment's debit and credit always run inside
	// one WithinTx call.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
