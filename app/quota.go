// Package app enforces subscription limits for authenticated users.
package app

import (
	"context"
	"database/sql"
	"errors"

	"example/newsbrief-api/app/models"
)

// Plan subscription limits. This is the canonical table; the terms-of-service
// copy mirrors these numbers.
const (
	FreeSubscriptionLimit = 5
	ProSubscriptionLimit  = 30
	MaxSubscriptionLimit  = 50
)

// PlanSubscriptionLimit resolves the quota for a plan. Unknown plans get
// the Free quota.
func PlanSubscriptionLimit(plan models.Plan) int {
	switch plan {
	case models.PlanPro:
		return ProSubscriptionLimit
	case models.PlanMax:
		return MaxSubscriptionLimit
	default:
		return FreeSubscriptionLimit
	}
}

// SubscriptionQuota is the admission-control verdict for one user.
type SubscriptionQuota struct {
	CanSubscribe bool        `json:"canSubscribe"`
	CurrentCount int         `json:"currentCount"`
	Limit        int         `json:"limit"`
	Plan         models.Plan `json:"plan"`
}

// evaluateQuota is the pure decision: admit while count is below the limit.
func evaluateQuota(plan models.Plan, currentCount int) SubscriptionQuota {
	limit := PlanSubscriptionLimit(plan)
	return SubscriptionQuota{
		CanSubscribe: currentCount < limit,
		CurrentCount: currentCount,
		Limit:        limit,
		Plan:         plan,
	}
}

type quotaError struct {
	Quota SubscriptionQuota
}

func (e quotaError) Error() string {
	return "subscription limit reached"
}

// CheckSubscriptionLimit is the advisory check: no side effects, and a
// missing profile row defaults to Free rather than failing the caller.
func CheckSubscriptionLimit(ctx context.Context, userID string) (SubscriptionQuota, error) {
	if db == nil {
		return evaluateQuota(models.PlanFree, 0), nil
	}

	plan, err := getPlan(ctx, userID)
	if err != nil {
		return SubscriptionQuota{}, err
	}

	count, err := countSubscribed(ctx, userID)
	if err != nil {
		return SubscriptionQuota{}, err
	}

	return evaluateQuota(plan, count), nil
}

// subscriptionStore is what the subscribe admission decision needs from the
// database. The production implementation wraps a serializable transaction.
type subscriptionStore interface {
	PlanForUpdate(ctx context.Context, userID string) (models.Plan, error)
	SubscriptionStatus(ctx context.Context, userID, sourceID string) (models.SubscriptionStatus, bool, error)
	CountSubscribed(ctx context.Context, userID string) (int, error)
	UpsertSubscription(ctx context.Context, userID, sourceID string, status models.SubscriptionStatus) error
}

// admitSubscription is the transaction body of the subscribe path.
//
// Re-subscribing while already subscribed is a no-op that bypasses the quota
// check entirely; the first return reports whether a new subscription was
// actually recorded (the counter only moves when it was). On a quota refusal
// nothing is written.
func admitSubscription(ctx context.Context, store subscriptionStore, userID, sourceID string) (changed bool, err error) {
	plan, err := store.PlanForUpdate(ctx, userID)
	if err != nil {
		return false, err
	}

	status, exists, err := store.SubscriptionStatus(ctx, userID, sourceID)
	if err != nil {
		return false, err
	}
	if exists && status == models.Subscribed {
		return false, nil
	}

	count, err := store.CountSubscribed(ctx, userID)
	if err != nil {
		return false, err
	}

	quota := evaluateQuota(plan, count)
	if !quota.CanSubscribe {
		return false, quotaError{Quota: quota}
	}

	if err := store.UpsertSubscription(ctx, userID, sourceID, models.Subscribed); err != nil {
		return false, err
	}
	return true, nil
}

// txSubscriptionStore backs admitSubscription with one open transaction.
type txSubscriptionStore struct {
	tx *sql.Tx
}

func (s txSubscriptionStore) PlanForUpdate(ctx context.Context, userID string) (models.Plan, error) {
	return getPlanForUpdate(ctx, s.tx, userID)
}

func (s txSubscriptionStore) SubscriptionStatus(ctx context.Context, userID, sourceID string) (models.SubscriptionStatus, bool, error) {
	return getSubscriptionStatus(ctx, s.tx, userID, sourceID)
}

func (s txSubscriptionStore) CountSubscribed(ctx context.Context, userID string) (int, error) {
	return countSubscribedTx(ctx, s.tx, userID)
}

func (s txSubscriptionStore) UpsertSubscription(ctx context.Context, userID, sourceID string, status models.SubscriptionStatus) error {
	return upsertSubscription(ctx, s.tx, userID, sourceID, status)
}

// subscribeWithQuota runs the quota check and the subscription upsert in one
// serializable transaction, locking the profile row so concurrent subscribes
// from the same user serialize instead of both passing a stale count.
func subscribeWithQuota(ctx context.Context, userID, sourceID string) (changed bool, err error) {
	if db == nil {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	changed, err = admitSubscription(ctx, txSubscriptionStore{tx: tx}, userID, sourceID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return changed, nil
}

// getPlanForUpdate reads the user's plan under FOR UPDATE, inserting the
// default Free profile first when none exists yet.
func getPlanForUpdate(ctx context.Context, tx *sql.Tx, userID string) (models.Plan, error) {
	plan, err := selectPlanForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := insertDefaultProfile(ctx, tx, userID); err != nil {
				return "", err
			}
			plan, err = selectPlanForUpdate(ctx, tx, userID)
		}
		if err != nil {
			return "", err
		}
	}
	return plan, nil
}

func selectPlanForUpdate(ctx context.Context, tx *sql.Tx, userID string) (models.Plan, error) {
	var plan models.Plan
	err := tx.QueryRowContext(ctx, `
		SELECT plan
		FROM profiles
		WHERE user_id = $1
		FOR UPDATE;
	`, userID).Scan(&plan)
	if err != nil {
		return "", err
	}
	return models.ParsePlan(string(plan)), nil
}

func insertDefaultProfile(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, plan, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO NOTHING;
	`, userID, models.PlanFree)
	return err
}
