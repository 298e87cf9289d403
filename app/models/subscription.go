package models

import "time"

type SubscriptionStatus string

const (
	Subscribed   SubscriptionStatus = "subscribed"
	Unsubscribed SubscriptionStatus = "unsubscribed"
)

// Subscription links a user to a news source. At most one row exists per
// (user, source) pair; toggles flip Status rather than deleting the row.
type Subscription struct {
	UserID    string             `db:"user_id" json:"userId"`
	SourceID  string             `db:"source_id" json:"sourceId"`
	Status    SubscriptionStatus `db:"status" json:"status"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
}
