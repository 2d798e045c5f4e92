// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrInvalidInput = errors.New("invalid input provided")

	// Identity errors.
	ErrInvalidUsername   = errors.New("username not valid")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrAccountNotFound   = errors.New("account not found")
	ErrSelfFriend        = errors.New("cannot add yourself as a friend")
	ErrAlreadyFriends    = errors.New("user is already a friend")

	// Payment errors.
	ErrSelfPayment         = errors.New("cannot pay yourself")
	ErrNonPositiveAmount   = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoCreditCard        = errors.New("must have a credit card to make a payment")
	ErrChargeFailed        = errors.New("card charge failed")

	// Credit card errors.
	ErrCardAlreadySet    = errors.New("only one credit card per account")
	ErrInvalidCardNumber = errors.New("invalid credit card number")
)

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// IsIdentityError reports whether err is a rejected operation caused by who
// the caller is or who they point at: a bad or taken username, an unknown
// account, or a self-referential or duplicate friendship.
func IsIdentityError(err error) bool {
	return errors.Is(err, ErrInvalidUsername) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrSelfFriend) ||
		errors.Is(err, ErrAlreadyFriends)
}

// IsPaymentError reports whether err is a rejected payment.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrSelfPayment) ||
		errors.Is(err, ErrNonPositiveAmount) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNoCreditCard) ||
		errors.Is(err, ErrChargeFailed)
}

// IsCreditCardError reports whether err is a rejected card registration.
func IsCreditCardError(err error) bool {
	return errors.Is(err, ErrCardAlreadySet) ||
		errors.Is(err, ErrInvalidCardNumber)
}
