// internal/service/feed.go
package service

import (
	"fmt"

	"peerpay/internal/domain"
)

// RenderFeed turns activities into display lines, preserving the input
// order. Sorting is RetrieveActivity's job, not the renderer's.
//
// Payments render as "Bobby paid Carol $5.00 for Coffee" and friendship
// links as "Bobby and Carol became friends".
func RenderFeed(activities []domain.Activity) []string {
	lines := make([]string, 0, len(activities))
	for _, activity := range activities {
		switch activity.Kind {
		case domain.ActivityKindPayment:
			lines = append(lines, fmt.Sprintf("%s paid %s $%s for %s",
				activity.Actor, activity.Target, activity.Amount.StringFixed(2), activity.Note))
		case domain.ActivityKindFriend:
			lines = append(lines, fmt.Sprintf("%s and %s became friends",
				activity.Actor, activity.Target))
		}
	}
	return lines
}
