package models

import "time"

type SourceStatus string

const (
	SourceActive   SourceStatus = "active"
	SourceDisabled SourceStatus = "disabled"
)

// NewsSource is a feed users can subscribe to. Sources without an owner
// (or owned by the official account) are platform sources.
type NewsSource struct {
	ID               string       `db:"id" json:"id"`
	OwnerUserID      *string      `db:"owner_user_id" json:"ownerUserId,omitempty"`
	Name             string       `db:"name" json:"name"`
	FeedURL          string       `db:"feed_url" json:"feedUrl"`
	Description      string       `db:"description" json:"description,omitempty"`
	IsPublic         bool         `db:"is_public" json:"isPublic"`
	SubscribersCount int          `db:"subscribers_count" json:"subscribersCount"`
	Status           SourceStatus `db:"status" json:"status"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`

	// IsSubscribed is filled in for authenticated listings only.
	IsSubscribed bool `db:"-" json:"isSubscribed"`
}
