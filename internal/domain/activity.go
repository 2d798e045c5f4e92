// internal/domain/activity.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActivityKind discriminates the variants of an activity record.
type ActivityKind string

const (
	ActivityKindPayment ActivityKind = "PAYMENT"
	ActivityKindFriend  ActivityKind = "FRIEND"
)

// Activity is an immutable record of something that happened between two
// accounts. A payment carries an amount and a note; a friend link carries
// only its participants, in the order the link was initiated. The record is
// stored once and appears in the history of both participants.
type Activity struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	Seq        int64           `db:"seq" json:"seq"` // Store-assigned, breaks timestamp ties
	Kind       ActivityKind    `db:"kind" json:"kind"`
	Actor      string          `db:"actor_username" json:"actor"`
	Target     string          `db:"target_username" json:"target"`
	Amount     decimal.Decimal `db:"amount" json:"amount"` // Zero for friend links
	Note       string          `db:"note" json:"note"`
	OccurredAt time.Time       `db:"occurred_at" json:"occurred_at"`
}

// NewPayment creates a payment activity from actor to target.
func NewPayment(actor, target string, amount decimal.Decimal, note string) *Activity {
	return &Activity{
		ID:         uuid.New(),
		Kind:       ActivityKindPayment,
		Actor:      actor,
		Target:     target,
		Amount:     amount,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	}
}

// NewFriendLink creates a friendship activity initiated by actor.
func NewFriendLink(actor, target string) *Activity {
	return &Activity{
		ID:         uuid.New(),
		Kind:       ActivityKindFriend,
		Actor:      actor,
		Target:     target,
		Amount:     decimal.Zero,
		OccurredAt: time.Now().UTC(),
	}
}
