// internal/domain/account.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"peerpay/internal/util"
)

// Account represents a user of the payment application: a balance, at most
// one linked credit card, and a username that identifies the account for its
// whole lifetime.
type Account struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	Username         string          `db:"username" json:"username"` // Unique, immutable after creation
	CreditCardNumber *string         `db:"credit_card_number" json:"credit_card_number,omitempty"`
	Balance          decimal.Decimal `db:"balance" json:"balance"` // Never negative
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// NewAccount creates a new Account with a zero balance and no card.
// It fails with util.ErrInvalidUsername when the username does not match
// the accepted pattern.
func NewAccount(username string) (*Account, error) {
	if !IsValidUsername(username) {
		return nil, util.ErrInvalidUsername
	}
	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		Username:  username,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasCreditCard reports whether a card has been linked to the account.
func (a *Account) HasCreditCard() bool {
	return a.CreditCardNumber != nil
}
