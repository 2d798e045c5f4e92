// internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"peerpay/internal/domain"
	"peerpay/internal/repository/memory"
	"peerpay/internal/util"
)

// MockCharger is a mock implementation of processor.Charger.
type MockCharger struct {
	mock.Mock
}

func (m *MockCharger) ChargeCard(ctx context.Context, cardNumber string, amount decimal.Decimal, idempotencyKey string) error {
	args := m.Called(ctx, cardNumber, amount, idempotencyKey)
	return args.Error(0)
}

func newTestLedger(t *testing.T) (LedgerService, *memory.Store, *MockCharger) {
	t.Helper()
	store := memory.NewStore()
	charger := new(MockCharger)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewLedgerService(store, charger, domain.IsValidCreditCardNumber, logger)
	return svc, store, charger
}

func balanceOf(t *testing.T, svc LedgerService, username string) decimal.Decimal {
	t.Helper()
	account, err := svc.GetAccount(context.Background(), username)
	require.NoError(t, err)
	return account.Balance
}

func TestCreateAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		account, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
		require.NoError(t, err)
		assert.Equal(t, "Bobby", account.Username)
		assert.Equal(t, "5.00", account.Balance.StringFixed(2))
		assert.True(t, account.HasCreditCard())
	})

	t.Run("NoCardNoBalance", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		account, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)
		assert.True(t, account.Balance.IsZero())
		assert.False(t, account.HasCreditCard())
	})

	t.Run("InvalidUsername", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "ab", decimal.Zero, "")
		assert.ErrorIs(t, err, util.ErrInvalidUsername)
		assert.True(t, util.IsIdentityError(err))
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		assert.ErrorIs(t, err, util.ErrDuplicateUsername)
	})

	t.Run("InvalidCard", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "1111222233334444")
		assert.ErrorIs(t, err, util.ErrInvalidCardNumber)
		assert.True(t, util.IsCreditCardError(err))

		// The failed card must not leave a half-created account behind.
		_, err = svc.GetAccount(ctx, "Bobby")
		assert.ErrorIs(t, err, util.ErrAccountNotFound)
	})

	t.Run("NegativeInitialBalance", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(-1), "")
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})
}

func TestAddCreditCard(t *testing.T) {
	t.Run("AtMostOneCard", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)

		require.NoError(t, svc.AddCreditCard(ctx, "Bobby", "4111111111111111"))

		// A second card fails even when the new number is valid.
		err = svc.AddCreditCard(ctx, "Bobby", "4242424242424242")
		assert.ErrorIs(t, err, util.ErrCardAlreadySet)
	})

	t.Run("InvalidNumber", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)

		err = svc.AddCreditCard(ctx, "Bobby", "not-a-card")
		assert.ErrorIs(t, err, util.ErrInvalidCardNumber)
	})
}

func TestDeposit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(1.50), "")
		require.NoError(t, err)

		account, err := svc.Deposit(ctx, "Bobby", decimal.NewFromFloat(2.25))
		require.NoError(t, err)
		assert.Equal(t, "3.75", account.Balance.StringFixed(2))
	})

	t.Run("RejectsNonPositive", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)

		_, err = svc.Deposit(ctx, "Bobby", decimal.NewFromFloat(-2))
		assert.ErrorIs(t, err, util.ErrInvalidInput)
		_, err = svc.Deposit(ctx, "Bobby", decimal.Zero)
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("RecordsNoActivity", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)
		_, err = svc.Deposit(ctx, "Bobby", decimal.NewFromFloat(10))
		require.NoError(t, err)

		activities, err := svc.RetrieveActivity(ctx, "Bobby")
		require.NoError(t, err)
		assert.Empty(t, activities)
	})
}

func TestPayBalancePath(t *testing.T) {
	ctx := context.Background()
	svc, _, charger := newTestLedger(t)

	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.NewFromFloat(10.00), "")
	require.NoError(t, err)

	activity, err := svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(5.00), "Coffee")
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityKindPayment, activity.Kind)
	assert.Equal(t, "Bobby", activity.Actor)
	assert.Equal(t, "Carol", activity.Target)

	// Exact debit, exact credit: total money is conserved.
	assert.Equal(t, "0.00", balanceOf(t, svc, "Bobby").StringFixed(2))
	assert.Equal(t, "15.00", balanceOf(t, svc, "Carol").StringFixed(2))

	// The card is never touched on the balance path.
	charger.AssertNotCalled(t, "ChargeCard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPayCardPath(t *testing.T) {
	t.Run("BalanceShortOfAmount", func(t *testing.T) {
		ctx := context.Background()
		svc, _, charger := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Carol", decimal.NewFromFloat(10.00), "")
		require.NoError(t, err)

		amount := decimal.NewFromFloat(20.00)
		charger.On("ChargeCard", mock.Anything, "4111111111111111", amount, mock.AnythingOfType("string")).Return(nil).Once()

		_, err = svc.Pay(ctx, "Bobby", "Carol", amount, "Dinner")
		require.NoError(t, err)

		// Card funds flow directly to the payee; the payer's balance is untouched.
		assert.Equal(t, "5.00", balanceOf(t, svc, "Bobby").StringFixed(2))
		assert.Equal(t, "30.00", balanceOf(t, svc, "Carol").StringFixed(2))
		charger.AssertExpectations(t)
	})

	t.Run("NoCardRegistered", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
		require.NoError(t, err)

		_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(20.00), "Dinner")
		assert.ErrorIs(t, err, util.ErrNoCreditCard)
		assert.ErrorContains(t, err, "payment failed:")
		assert.True(t, util.IsPaymentError(err))

		// Balances unchanged on failure.
		assert.Equal(t, "5.00", balanceOf(t, svc, "Bobby").StringFixed(2))
		assert.Equal(t, "0.00", balanceOf(t, svc, "Carol").StringFixed(2))
	})

	t.Run("ChargeFails", func(t *testing.T) {
		ctx := context.Background()
		svc, _, charger := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "4111111111111111")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
		require.NoError(t, err)

		charger.On("ChargeCard", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("processor unavailable")).Once()

		_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(3.00), "Snacks")
		assert.ErrorIs(t, err, util.ErrChargeFailed)

		assert.Equal(t, "0.00", balanceOf(t, svc, "Carol").StringFixed(2))
		charger.AssertExpectations(t)
	})
}

func TestPayPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.NewFromFloat(10.00), "")
	require.NoError(t, err)

	t.Run("SelfPayment", func(t *testing.T) {
		_, err := svc.Pay(ctx, "Bobby", "Bobby", decimal.NewFromFloat(1.00), "oops")
		assert.ErrorIs(t, err, util.ErrSelfPayment)
		assert.True(t, util.IsPaymentError(err))
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		_, err := svc.Pay(ctx, "Bobby", "Carol", decimal.Zero, "zero")
		assert.ErrorIs(t, err, util.ErrNonPositiveAmount)
		_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(-4), "negative")
		assert.ErrorIs(t, err, util.ErrNonPositiveAmount)
	})

	t.Run("UnknownPayer", func(t *testing.T) {
		_, err := svc.Pay(ctx, "Nobody99", "Carol", decimal.NewFromFloat(1.00), "ghost")
		assert.ErrorIs(t, err, util.ErrAccountNotFound)
	})

	// Precondition failures leave balances untouched.
	assert.Equal(t, "5.00", balanceOf(t, svc, "Bobby").StringFixed(2))
	assert.Equal(t, "10.00", balanceOf(t, svc, "Carol").StringFixed(2))
}

func TestPayWithBalanceRevalidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
	require.NoError(t, err)

	// Called directly, the balance path refuses rather than falling back
	// to the card.
	_, err = svc.PayWithBalance(ctx, "Bobby", "Carol", decimal.NewFromFloat(6.00), "too much")
	assert.ErrorIs(t, err, util.ErrInsufficientBalance)

	_, err = svc.PayWithBalance(ctx, "Bobby", "Bobby", decimal.NewFromFloat(1.00), "self")
	assert.ErrorIs(t, err, util.ErrSelfPayment)

	assert.Equal(t, "5.00", balanceOf(t, svc, "Bobby").StringFixed(2))
}

func TestPayWithCardDirect(t *testing.T) {
	ctx := context.Background()
	svc, _, charger := newTestLedger(t)

	// Plenty of balance: the card path still charges the card when called
	// directly.
	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(100.00), "4111111111111111")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
	require.NoError(t, err)

	amount := decimal.NewFromFloat(2.00)
	charger.On("ChargeCard", mock.Anything, "4111111111111111", amount, mock.AnythingOfType("string")).Return(nil).Once()

	_, err = svc.PayWithCard(ctx, "Bobby", "Carol", amount, "direct")
	require.NoError(t, err)

	assert.Equal(t, "100.00", balanceOf(t, svc, "Bobby").StringFixed(2))
	assert.Equal(t, "2.00", balanceOf(t, svc, "Carol").StringFixed(2))
	charger.AssertExpectations(t)
}

func TestAddFriend(t *testing.T) {
	t.Run("SymmetricWithSharedActivity", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
		require.NoError(t, err)

		activity, err := svc.AddFriend(ctx, "Bobby", "Carol")
		require.NoError(t, err)
		assert.Equal(t, domain.ActivityKindFriend, activity.Kind)

		bobbyFriends, err := svc.ListFriends(ctx, "Bobby")
		require.NoError(t, err)
		carolFriends, err := svc.ListFriends(ctx, "Carol")
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol"}, bobbyFriends)
		assert.Equal(t, []string{"Bobby"}, carolFriends)

		// Exactly one activity, shared by both histories.
		bobbyActs, err := svc.RetrieveActivity(ctx, "Bobby")
		require.NoError(t, err)
		carolActs, err := svc.RetrieveActivity(ctx, "Carol")
		require.NoError(t, err)
		require.Len(t, bobbyActs, 1)
		require.Len(t, carolActs, 1)
		assert.Equal(t, bobbyActs[0].ID, carolActs[0].ID)
	})

	t.Run("RejectsSelf", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)

		_, err = svc.AddFriend(ctx, "Bobby", "Bobby")
		assert.ErrorIs(t, err, util.ErrSelfFriend)
		assert.True(t, util.IsIdentityError(err))
	})

	t.Run("RejectsDuplicateEitherDirection", func(t *testing.T) {
		ctx := context.Background()
		svc, _, _ := newTestLedger(t)

		_, err := svc.CreateAccount(ctx, "Bobby", decimal.Zero, "")
		require.NoError(t, err)
		_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
		require.NoError(t, err)

		_, err = svc.AddFriend(ctx, "Bobby", "Carol")
		require.NoError(t, err)

		_, err = svc.AddFriend(ctx, "Bobby", "Carol")
		assert.ErrorIs(t, err, util.ErrAlreadyFriends)
		_, err = svc.AddFriend(ctx, "Carol", "Bobby")
		assert.ErrorIs(t, err, util.ErrAlreadyFriends)

		// No extra activity was recorded by the failed attempts.
		activities, err := svc.RetrieveActivity(ctx, "Bobby")
		require.NoError(t, err)
		assert.Len(t, activities, 1)
	})
}

func TestRetrieveActivityReflectsCurrentState(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(10.00), "")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.Zero, "")
	require.NoError(t, err)

	_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(1.00), "first")
	require.NoError(t, err)

	before, err := svc.RetrieveActivity(ctx, "Bobby")
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(1.00), "second")
	require.NoError(t, err)

	after, err := svc.RetrieveActivity(ctx, "Bobby")
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "second", after[0].Note)
	assert.Equal(t, "first", after[1].Note)
}

func TestScenarioBobbyAndCarol(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	_, err := svc.CreateAccount(ctx, "Bobby", decimal.NewFromFloat(5.00), "4111111111111111")
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, "Carol", decimal.NewFromFloat(10.00), "4242424242424242")
	require.NoError(t, err)

	// Bobby holds exactly $5.00: balance path.
	_, err = svc.Pay(ctx, "Bobby", "Carol", decimal.NewFromFloat(5.00), "Coffee")
	require.NoError(t, err)
	assert.Equal(t, "0.00", balanceOf(t, svc, "Bobby").StringFixed(2))
	assert.Equal(t, "15.00", balanceOf(t, svc, "Carol").StringFixed(2))

	// Carol now holds exactly $15.00: balance path again.
	_, err = svc.Pay(ctx, "Carol", "Bobby", decimal.NewFromFloat(15.00), "Lunch")
	require.NoError(t, err)
	assert.Equal(t, "15.00", balanceOf(t, svc, "Bobby").StringFixed(2))
	assert.Equal(t, "0.00", balanceOf(t, svc, "Carol").StringFixed(2))

	activities, err := svc.RetrieveActivity(ctx, "Bobby")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Carol paid Bobby $15.00 for Lunch",
		"Bobby paid Carol $5.00 for Coffee",
	}, RenderFeed(activities))

	// The friendship leads the feed once recorded.
	_, err = svc.AddFriend(ctx, "Bobby", "Carol")
	require.NoError(t, err)

	activities, err = svc.RetrieveActivity(ctx, "Bobby")
	require.NoError(t, err)
	lines := RenderFeed(activities)
	require.Len(t, lines, 3)
	assert.Equal(t, "Bobby and Carol became friends", lines[0])
}
