// internal/repository/postgres/activity_pg.go
package postgres

import (
	"context"
	"fmt"

	"peerpay/internal/domain"
)

// activityRepo implements repository.ActivityRepository for PostgreSQL.
type activityRepo struct {
	q executor
}

// AppendActivity inserts an activity record. The seq column is a sequence,
// so insertion order is preserved even when occurred_at values collide.
func (r *activityRepo) AppendActivity(ctx context.Context, activity *domain.Activity) error {
	query := `INSERT INTO activities (id, kind, actor_username, target_username, amount, note, occurred_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING seq`
	err := r.q.QueryRowContext(ctx, query,
		activity.ID, activity.Kind, activity.Actor, activity.Target,
		activity.Amount, activity.Note, activity.OccurredAt,
	).Scan(&activity.Seq)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListByAccount retrieves every activity the account participates in,
// newest first.
func (r *activityRepo) ListByAccount(ctx context.Context, username string) ([]domain.Activity, error) {
	activities := []domain.Activity{}
	query := `
		SELECT id, seq, kind, actor_username, target_username, amount, note, occurred_at
		FROM activities
		WHERE actor_username = $1 OR target_username = $1
		ORDER BY occurred_at DESC, seq DESC`
	if err := r.q.SelectContext(ctx, &activities, query, username); err != nil {
		return nil, fmt.Errorf("failed to fetch activities for '%s': %w", username, err)
	}
	return activities, nil
}
