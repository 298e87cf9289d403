// Package models defines profile, source, subscription and brief records.
package models

import (
	"database/sql"
	"time"
)

type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
	PlanMax  Plan = "MAX"
)

// ParsePlan maps a raw string onto a known plan, defaulting to Free.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanPro:
		return PlanPro
	case PlanMax:
		return PlanMax
	default:
		return PlanFree
	}
}

type Profile struct {
	UserID           string         `db:"user_id" json:"userId"`
	Email            sql.NullString `db:"email" json:"-"`
	Name             sql.NullString `db:"name" json:"-"`
	DisplayName      sql.NullString `db:"display_name" json:"-"`
	Timezone         sql.NullString `db:"timezone" json:"-"`
	DeliveryTime     sql.NullString `db:"delivery_time" json:"-"`
	Voice            sql.NullString `db:"voice" json:"-"`
	Plan             Plan           `db:"plan" json:"plan"`
	StripeCustomerID sql.NullString `db:"stripe_customer_id" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}
