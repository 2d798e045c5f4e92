// internal/repository/postgres/friendship_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"
)

// friendRepo implements repository.FriendRepository for PostgreSQL.
// A friendship is stored once as an ordered pair (account_a < account_b),
// which makes symmetry a property of the row rather than of two updates.
type friendRepo struct {
	q executor
}

func orderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// AddFriendship records that a and b are friends.
func (r *friendRepo) AddFriendship(ctx context.Context, a, b string) error {
	first, second := orderedPair(a, b)
	query := `INSERT INTO friendships (account_a, account_b, created_at) VALUES ($1, $2, $3)`
	if _, err := r.q.ExecContext(ctx, query, first, second, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to add friendship %s/%s: %w", first, second, err)
	}
	return nil
}

// AreFriends reports whether a friendship exists between a and b.
func (r *friendRepo) AreFriends(ctx context.Context, a, b string) (bool, error) {
	first, second := orderedPair(a, b)
	var count int
	query := `SELECT COUNT(*) FROM friendships WHERE account_a = $1 AND account_b = $2`
	if err := r.q.GetContext(ctx, &count, query, first, second); err != nil {
		return false, fmt.Errorf("failed to check friendship %s/%s: %w", first, second, err)
	}
	return count > 0, nil
}

// ListFriends returns the usernames of the account's friends.
func (r *friendRepo) ListFriends(ctx context.Context, username string) ([]string, error) {
	friends := []string{}
	query := `
		SELECT CASE WHEN account_a = $1 THEN account_b ELSE account_a END
		FROM friendships
		WHERE account_a = $1 OR account_b = $1
		ORDER BY 1`
	if err := r.q.SelectContext(ctx, &friends, query, username); err != nil {
		return nil, fmt.Errorf("failed to list friends for '%s': %w", username, err)
	}
	return friends, nil
}
