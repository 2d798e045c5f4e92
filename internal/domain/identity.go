// internal/domain/identity.go
package domain

import "regexp"

// usernamePattern accepts letters, digits, underscore and hyphen,
// 4 to 15 characters.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,15}$`)

// IsValidUsername reports whether s is an acceptable username.
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// CardValidator checks the shape of a credit card number. The service takes
// one of these so the bundled allow-list can be swapped for a real
// card-network check without touching the ledger logic.
type CardValidator func(cardNumber string) bool

// testCardNumbers is the fixed allow-list of accepted card numbers. It
// stands in for a card-network format check.
var testCardNumbers = map[string]struct{}{
	"4111111111111111": {},
	"4242424242424242": {},
}

// IsValidCreditCardNumber reports whether s is an accepted card number.
func IsValidCreditCardNumber(s string) bool {
	_, ok := testCardNumbers[s]
	return ok
}
