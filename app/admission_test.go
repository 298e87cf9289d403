package app

import (
	"context"
	"errors"
	"testing"

	"example/newsbrief-api/app/models"
)

type fakeSubscriptionStore struct {
	plan   models.Plan
	status models.SubscriptionStatus
	exists bool
	count  int

	countCalls int
	upserts    []models.SubscriptionStatus
}

func (f *fakeSubscriptionStore) PlanForUpdate(ctx context.Context, userID string) (models.Plan, error) {
	return f.plan, nil
}

func (f *fakeSubscriptionStore) SubscriptionStatus(ctx context.Context, userID, sourceID string) (models.SubscriptionStatus, bool, error) {
	return f.status, f.exists, nil
}

func (f *fakeSubscriptionStore) CountSubscribed(ctx context.Context, userID string) (int, error) {
	f.countCalls++
	return f.count, nil
}

func (f *fakeSubscriptionStore) UpsertSubscription(ctx context.Context, userID, sourceID string, status models.SubscriptionStatus) error {
	f.upserts = append(f.upserts, status)
	return nil
}

func TestAdmitSubscriptionAtLimitWritesNothing(t *testing.T) {
	store := &fakeSubscriptionStore{plan: models.PlanFree, count: FreeSubscriptionLimit}

	changed, err := admitSubscription(context.Background(), store, "user-123", "s1")
	if changed {
		t.Fatalf("admitSubscription at limit reported a change")
	}

	var qe quotaError
	if !errors.As(err, &qe) {
		t.Fatalf("admitSubscription error = %v, want quotaError", err)
	}
	if qe.Quota.Limit != FreeSubscriptionLimit || qe.Quota.CurrentCount != FreeSubscriptionLimit || qe.Quota.Plan != models.PlanFree {
		t.Fatalf("quotaError payload = %+v", qe.Quota)
	}
	if len(store.upserts) != 0 {
		t.Fatalf("quota refusal wrote %d rows", len(store.upserts))
	}
}

func TestAdmitSubscriptionResubscribeIsQuotaFreeNoOp(t *testing.T) {
	store := &fakeSubscriptionStore{
		plan:   models.PlanFree,
		status: models.Subscribed,
		exists: true,
		count:  FreeSubscriptionLimit + 2,
	}

	changed, err := admitSubscription(context.Background(), store, "user-123", "s1")
	if err != nil {
		t.Fatalf("re-subscribe error = %v", err)
	}
	if changed {
		t.Fatalf("re-subscribe reported a change")
	}
	if len(store.upserts) != 0 {
		t.Fatalf("re-subscribe wrote %d rows", len(store.upserts))
	}
	if store.countCalls != 0 {
		t.Fatalf("re-subscribe consulted the quota %d times", store.countCalls)
	}
}

func TestAdmitSubscriptionBelowLimitWrites(t *testing.T) {
	store := &fakeSubscriptionStore{plan: models.PlanFree, count: FreeSubscriptionLimit - 1}

	changed, err := admitSubscription(context.Background(), store, "user-123", "s1")
	if err != nil {
		t.Fatalf("admitSubscription error = %v", err)
	}
	if !changed {
		t.Fatalf("admitSubscription below limit reported no change")
	}
	if len(store.upserts) != 1 || store.upserts[0] != models.Subscribed {
		t.Fatalf("upserts = %+v", store.upserts)
	}
}

func TestAdmitSubscriptionFlipsUnsubscribedRowBack(t *testing.T) {
	store := &fakeSubscriptionStore{
		plan:   models.PlanPro,
		status: models.Unsubscribed,
		exists: true,
		count:  1,
	}

	changed, err := admitSubscription(context.Background(), store, "user-123", "s1")
	if err != nil || !changed {
		t.Fatalf("toggle back = (%v, %v), want (true, nil)", changed, err)
	}
	if len(store.upserts) != 1 || store.upserts[0] != models.Subscribed {
		t.Fatalf("upserts = %+v", store.upserts)
	}
}

func TestClampCount(t *testing.T) {
	cases := map[int]int{-3: 0, -1: 0, 0: 0, 1: 1, 7: 7}
	for in, want := range cases {
		if got := clampCount(in); got != want {
			t.Fatalf("clampCount(%d) = %d, want %d", in, got, want)
		}
	}
}
