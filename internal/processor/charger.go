// internal/processor/charger.go
package processor

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Charger is the card-charge capability. Implementations must treat the
// idempotency key as the identity of the attempt: charging the same key
// twice must bill at most once, so a retried charge is safe.
type Charger interface {
	ChargeCard(ctx context.Context, cardNumber string, amount decimal.Decimal, idempotencyKey string) error
}

// StaticCharger approves every charge. It stands in for a real card
// processor; a production implementation would make a fallible remote call.
type StaticCharger struct {
	logger *slog.Logger
}

// NewStaticCharger creates a StaticCharger.
func NewStaticCharger(logger *slog.Logger) *StaticCharger {
	return &StaticCharger{logger: logger}
}

// ChargeCard approves the charge unconditionally.
func (c *StaticCharger) ChargeCard(ctx context.Context, cardNumber string, amount decimal.Decimal, idempotencyKey string) error {
	c.logger.Info("Card charge approved",
		"amount", amount.StringFixed(2),
		"idempotency_key", idempotencyKey,
	)
	return nil
}
