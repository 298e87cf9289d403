// Package app provides profile persistence helpers for authenticated requests.
package app

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"
)

// UpsertProfileFromClaims creates a profile row if it does not already exist.
func UpsertProfileFromClaims(ctx context.Context, claims *auth.Claims) error {
	if db == nil {
		return nil
	}
	if claims == nil || claims.Subject == "" {
		return nil
	}

	email := strings.TrimSpace(claims.Email)
	name := strings.TrimSpace(claims.Name)

	const q = `
		INSERT INTO profiles (user_id, email, name, plan, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO NOTHING;
	`

	_, err := db.ExecContext(
		ctx,
		q,
		claims.Subject,
		nullIfEmpty(email),
		nullIfEmpty(name),
		models.PlanFree,
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func getProfile(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	err := db.QueryRowContext(ctx, `
		SELECT user_id, email, name, display_name, timezone, delivery_time, voice, plan, stripe_customer_id, created_at
		FROM profiles
		WHERE user_id = $1;
	`, userID).Scan(
		&p.UserID,
		&p.Email,
		&p.Name,
		&p.DisplayName,
		&p.Timezone,
		&p.DeliveryTime,
		&p.Voice,
		&p.Plan,
		&p.StripeCustomerID,
		&p.CreatedAt,
	)
	if err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

// getPlan resolves the user's plan, defaulting to Free when no profile row
// exists. The default must never fail the caller.
func getPlan(ctx context.Context, userID string) (models.Plan, error) {
	var plan models.Plan
	err := db.QueryRowContext(ctx, `
		SELECT plan
		FROM profiles
		WHERE user_id = $1;
	`, userID).Scan(&plan)
	if err == sql.ErrNoRows {
		return models.PlanFree, nil
	}
	if err != nil {
		return "", err
	}
	return models.ParsePlan(string(plan)), nil
}

// profileUpdateAllowList names the only fields a profile update may touch.
// Anything else submitted is silently dropped, not rejected.
var profileUpdateAllowList = map[string]string{
	"displayName":  "display_name",
	"timezone":     "timezone",
	"deliveryTime": "delivery_time",
	"voice":        "voice",
}

// filterProfileFields keeps only allow-listed fields, mapping JSON names to
// column names. Non-string values are dropped along with unknown keys.
func filterProfileFields(in map[string]any) map[string]string {
	out := make(map[string]string)
	for key, raw := range in {
		col, ok := profileUpdateAllowList[key]
		if !ok {
			continue
		}
		if s, ok := raw.(string); ok {
			out[col] = strings.TrimSpace(s)
		}
	}
	return out
}

func updateProfileFields(ctx context.Context, userID string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	// Build the SET clause from the already-filtered column names.
	q := "UPDATE profiles SET "
	args := make([]any, 0, len(fields)+1)
	i := 1
	for _, col := range []string{"display_name", "timezone", "delivery_time", "voice"} {
		val, ok := fields[col]
		if !ok {
			continue
		}
		if i > 1 {
			q += ", "
		}
		q += col + " = $" + strconv.Itoa(i)
		args = append(args, val)
		i++
	}
	q += " WHERE user_id = $" + strconv.Itoa(i) + ";"
	args = append(args, userID)

	_, err := db.ExecContext(ctx, q, args...)
	return err
}
