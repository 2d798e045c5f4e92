// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"peerpay/internal/domain"
	"peerpay/internal/processor"
	"peerpay/internal/repository"
	"peerpay/internal/util"
)

// LedgerService defines the interface for the payment and friendship
// business logic.
type LedgerService interface {
	// CreateAccount composes account creation, the initial deposit and card
	// registration, failing with whichever underlying error triggers first.
	CreateAccount(ctx context.Context, username string, initialBalance decimal.Decimal, cardNumber string) (*domain.Account, error)
	// GetAccount returns the current view of an account.
	GetAccount(ctx context.Context, username string) (*domain.Account, error)
	// Deposit adds a positive amount to the account's balance. Deposits are
	// not recorded as activities.
	Deposit(ctx context.Context, username string, amount decimal.Decimal) (*domain.Account, error)
	// AddCreditCard links a card to the account. At most one card, ever.
	AddCreditCard(ctx context.Context, username, cardNumber string) error
	// Pay settles the full amount from the actor's balance when it covers
	// the amount, and otherwise through the actor's credit card. Failures
	// from the chosen path are wrapped with a "payment failed" prefix.
	Pay(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error)
	// PayWithBalance settles the full amount from the actor's balance.
	PayWithBalance(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error)
	// PayWithCard settles the full amount through the actor's credit card,
	// crediting the target's balance directly.
	PayWithCard(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error)
	// AddFriend records a symmetric friendship and one shared activity.
	AddFriend(ctx context.Context, actor, target string) (*domain.Activity, error)
	// ListFriends returns the usernames of the account's friends.
	ListFriends(ctx context.Context, username string) ([]string, error)
	// RetrieveActivity returns the account's activities, newest first.
	RetrieveActivity(ctx context.Context, username string) ([]domain.Activity, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	store     repository.Store
	charger   processor.Charger
	validCard domain.CardValidator
	logger    *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	store repository.Store,
	charger processor.Charger,
	validCard domain.CardValidator,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		store:     store,
		charger:   charger,
		validCard: validCard,
		logger:    logger,
	}
}

// CreateAccount creates an account, applies the initial deposit and links
// the card, all inside one transaction.
func (s *ledgerService) CreateAccount(ctx context.Context, username string, initialBalance decimal.Decimal, cardNumber string) (*domain.Account, error) {
	account, err := domain.NewAccount(username)
	if err != nil {
		return nil, err
	}
	if initialBalance.IsNegative() {
		return nil, util.ErrInvalidInput
	}
	if cardNumber != "" && !s.validCard(cardNumber) {
		return nil, util.ErrInvalidCardNumber
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Accounts().GetAccountByUsername(ctx, username); err == nil {
			return util.ErrDuplicateUsername
		} else if !errors.Is(err, util.ErrAccountNotFound) {
			return fmt.Errorf("create account: failed to check existing username: %w", err)
		}

		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		if initialBalance.IsPositive() {
			if err := tx.Accounts().UpdateBalance(ctx, username, initialBalance); err != nil {
				return fmt.Errorf("create account: failed to apply initial deposit: %w", err)
			}
		}
		if cardNumber != "" {
			if err := tx.Accounts().SetCreditCard(ctx, username, cardNumber); err != nil {
				return fmt.Errorf("create account: failed to link card: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "username", username)
	return s.GetAccount(ctx, username)
}

// GetAccount returns the current view of an account.
func (s *ledgerService) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	account, err := s.store.Accounts().GetAccountByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get account '%s': %w", username, err)
	}
	return account, nil
}

// Deposit adds amount to the account's balance.
func (s *ledgerService) Deposit(ctx context.Context, username string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Accounts().GetAccountByUsername(ctx, username); err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		if err := tx.Accounts().UpdateBalance(ctx, username, amount); err != nil {
			return fmt.Errorf("deposit: failed to update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, username)
}

// AddCreditCard links a card to the account.
func (s *ledgerService) AddCreditCard(ctx context.Context, username, cardNumber string) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		account, err := tx.Accounts().GetAccountByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("add credit card: %w", err)
		}
		if account.HasCreditCard() {
			return util.ErrCardAlreadySet
		}
		if !s.validCard(cardNumber) {
			return util.ErrInvalidCardNumber
		}
		if err := tx.Accounts().SetCreditCard(ctx, username, cardNumber); err != nil {
			return fmt.Errorf("add credit card: %w", err)
		}
		return nil
	})
}

// validatePayment checks the preconditions shared by every payment path,
// in the order they are reported.
func validatePayment(actor, target string, amount decimal.Decimal) error {
	if actor == target {
		return util.ErrSelfPayment
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.ErrNonPositiveAmount
	}
	return nil
}

// Pay settles the payment from balance when the balance covers the whole
// amount, otherwise through the card. There is no partial split.
func (s *ledgerService) Pay(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error) {
	if err := validatePayment(actor, target, amount); err != nil {
		return nil, err
	}

	var activity *domain.Activity
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		payer, err := tx.Accounts().GetAccountByUsername(ctx, actor)
		if err != nil {
			return err
		}
		if payer.Balance.GreaterThanOrEqual(amount) {
			activity, err = s.settleFromBalance(ctx, tx, payer, target, amount, note)
		} else {
			activity, err = s.settleWithCard(ctx, tx, payer, target, amount, note)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	s.logger.Info("Payment settled",
		"actor", actor, "target", target, "amount", amount.StringFixed(2))
	return activity, nil
}

// PayWithBalance settles the full amount from the actor's balance.
func (s *ledgerService) PayWithBalance(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error) {
	if err := validatePayment(actor, target, amount); err != nil {
		return nil, err
	}

	var activity *domain.Activity
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		payer, err := tx.Accounts().GetAccountByUsername(ctx, actor)
		if err != nil {
			return err
		}
		activity, err = s.settleFromBalance(ctx, tx, payer, target, amount, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// PayWithCard settles the full amount through the actor's credit card.
func (s *ledgerService) PayWithCard(ctx context.Context, actor, target string, amount decimal.Decimal, note string) (*domain.Activity, error) {
	if err := validatePayment(actor, target, amount); err != nil {
		return nil, err
	}

	var activity *domain.Activity
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		payer, err := tx.Accounts().GetAccountByUsername(ctx, actor)
		if err != nil {
			return err
		}
		activity, err = s.settleWithCard(ctx, tx, payer, target, amount, note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

// settleFromBalance debits the payer, credits the payee and records the
// shared payment activity. All preconditions are verified before the first
// mutation.
func (s *ledgerService) settleFromBalance(ctx context.Context, tx repository.Store, payer *domain.Account, target string, amount decimal.Decimal, note string) (*domain.Activity, error) {
	if payer.Balance.LessThan(amount) {
		return nil, util.ErrInsufficientBalance
	}
	payee, err := tx.Accounts().GetAccountByUsername(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := tx.Accounts().UpdateBalance(ctx, payer.Username, amount.Neg()); err != nil {
		return nil, fmt.Errorf("failed to debit payer: %w", err)
	}
	if err := tx.Accounts().UpdateBalance(ctx, payee.Username, amount); err != nil {
		return nil, fmt.Errorf("failed to credit payee: %w", err)
	}

	activity := domain.NewPayment(payer.Username, payee.Username, amount, note)
	if err := tx.Activities().AppendActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return activity, nil
}

// settleWithCard charges the payer's card and credits the payee. The
// payer's balance is untouched; card funds flow directly to the payee.
func (s *ledgerService) settleWithCard(ctx context.Context, tx repository.Store, payer *domain.Account, target string, amount decimal.Decimal, note string) (*domain.Activity, error) {
	if !payer.HasCreditCard() {
		return nil, util.ErrNoCreditCard
	}
	payee, err := tx.Accounts().GetAccountByUsername(ctx, target)
	if err != nil {
		return nil, err
	}

	// One fresh key per attempt; the processor must not double-bill a
	// retried key.
	idempotencyKey := uuid.NewString()
	if err := s.charger.ChargeCard(ctx, *payer.CreditCardNumber, amount, idempotencyKey); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrChargeFailed, err)
	}

	if err := tx.Accounts().UpdateBalance(ctx, payee.Username, amount); err != nil {
		return nil, fmt.Errorf("failed to credit payee: %w", err)
	}

	activity := domain.NewPayment(payer.Username, payee.Username, amount, note)
	if err := tx.Activities().AppendActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return activity, nil
}

// AddFriend records a friendship between actor and target. The relation is
// symmetric and one shared activity appears in both histories.
func (s *ledgerService) AddFriend(ctx context.Context, actor, target string) (*domain.Activity, error) {
	if actor == target {
		return nil, util.ErrSelfFriend
	}

	var activity *domain.Activity
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Accounts().GetAccountByUsername(ctx, actor); err != nil {
			return fmt.Errorf("add friend: %w", err)
		}
		if _, err := tx.Accounts().GetAccountByUsername(ctx, target); err != nil {
			return fmt.Errorf("add friend: %w", err)
		}

		friends, err := tx.Friends().AreFriends(ctx, actor, target)
		if err != nil {
			return fmt.Errorf("add friend: %w", err)
		}
		if friends {
			return util.ErrAlreadyFriends
		}

		if err := tx.Friends().AddFriendship(ctx, actor, target); err != nil {
			return fmt.Errorf("add friend: %w", err)
		}
		activity = domain.NewFriendLink(actor, target)
		if err := tx.Activities().AppendActivity(ctx, activity); err != nil {
			return fmt.Errorf("add friend: failed to record activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Friendship recorded", "actor", actor, "target", target)
	return activity, nil
}

// ListFriends returns the usernames of the account's friends.
func (s *ledgerService) ListFriends(ctx context.Context, username string) ([]string, error) {
	if _, err := s.store.Accounts().GetAccountByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	friends, err := s.store.Friends().ListFriends(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// RetrieveActivity returns the account's activities, most recent first.
// Timestamp ties are broken by insertion order.
func (s *ledgerService) RetrieveActivity(ctx context.Context, username string) ([]domain.Activity, error) {
	if _, err := s.store.Accounts().GetAccountByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("retrieve activity: %w", err)
	}
	activities, err := s.store.Activities().ListByAccount(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("retrieve activity: %w", err)
	}
	return activities, nil
}
