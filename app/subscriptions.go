package app

import (
	"context"
	"database/sql"
	"log"

	"example/newsbrief-api/app/models"
)

// upsertSubscription flips the row's status when it exists and inserts it
// otherwise. Unique on (user_id, source_id).
func upsertSubscription(ctx context.Context, tx *sql.Tx, userID, sourceID string, status models.SubscriptionStatus) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, source_id, status, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, source_id) DO UPDATE SET status = EXCLUDED.status;
	`, userID, sourceID, status)
	return err
}

func getSubscriptionStatus(ctx context.Context, tx *sql.Tx, userID, sourceID string) (models.SubscriptionStatus, bool, error) {
	var status models.SubscriptionStatus
	err := tx.QueryRowContext(ctx, `
		SELECT status
		FROM subscriptions
		WHERE user_id = $1 AND source_id = $2;
	`, userID, sourceID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func countSubscribedTx(ctx context.Context, tx *sql.Tx, userID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE user_id = $1 AND status = 'subscribed';
	`, userID).Scan(&n)
	return n, err
}

func countSubscribed(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE user_id = $1 AND status = 'subscribed';
	`, userID).Scan(&n)
	return n, err
}

// markUnsubscribed flips an existing row to unsubscribed. A missing row is
// a successful no-op, not NotFound.
func markUnsubscribed(ctx context.Context, userID, sourceID string) (changed bool, err error) {
	res, err := db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'unsubscribed'
		WHERE user_id = $1 AND source_id = $2 AND status = 'subscribed';
	`, userID, sourceID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// removeSubscription hard-deletes the row (explicit remove action).
func removeSubscription(ctx context.Context, userID, sourceID string) (removed bool, wasSubscribed bool, err error) {
	var status models.SubscriptionStatus
	err = db.QueryRowContext(ctx, `
		DELETE FROM subscriptions
		WHERE user_id = $1 AND source_id = $2
		RETURNING status;
	`, userID, sourceID).Scan(&status)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, status == models.Subscribed, nil
}

func listSubscriptions(ctx context.Context, userID string) ([]models.Subscription, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, source_id, status, created_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC;
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.UserID, &s.SourceID, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// adjustSubscriberCount nudges the denormalized counter, clamped at 0.
// Callers treat failure as drift: logged, never fatal to the request.
func adjustSubscriberCount(ctx context.Context, sourceID string, delta int) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		UPDATE news_sources
		SET subscribers_count = GREATEST(subscribers_count + $1, 0)
		WHERE id = $2
		RETURNING subscribers_count;
	`, delta, sourceID).Scan(&count)
	return count, err
}

// bumpSubscriberCount is the phase-two write after a subscription change.
// Drift is observable in the logs but the primary write already succeeded.
func bumpSubscriberCount(ctx context.Context, sourceID string, delta int, fallback int) int {
	count, err := adjustSubscriberCount(ctx, sourceID, delta)
	if err != nil {
		log.Printf("subscriber count drift source=%s delta=%d err=%v", sourceID, delta, err)
		count = clampCount(fallback + delta)
	}
	return count
}

// clampCount mirrors the GREATEST(count, 0) clamp in the counter UPDATE.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
