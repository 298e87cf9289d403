package app

import (
	"context"
	"database/sql"

	"example/newsbrief-api/app/models"
)

func listBriefs(ctx context.Context, userID string, limit int) ([]models.Brief, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, title, summary, audio_url, created_at
		FROM briefs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Brief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// getDemoBrief fetches the official account's latest brief. This is the one
// deliberate cross-user read; every other brief query is caller-scoped.
func getDemoBrief(ctx context.Context, officialUserID string) (models.Brief, bool, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, title, summary, audio_url, created_at
		FROM briefs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`, officialUserID)
	b, err := scanBrief(row)
	if err == sql.ErrNoRows {
		return models.Brief{}, false, nil
	}
	if err != nil {
		return models.Brief{}, false, err
	}
	return b, true, nil
}

func insertBrief(ctx context.Context, userID, title, summary, audioURL string) (models.Brief, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO briefs (id, user_id, title, summary, audio_url, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
		RETURNING id, user_id, title, summary, audio_url, created_at;
	`, userID, title, summary, nullIfEmpty(audioURL))
	return scanBrief(row)
}

func scanBrief(row interface{ Scan(...any) error }) (models.Brief, error) {
	var b models.Brief
	var audio sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Summary, &audio, &b.CreatedAt)
	if err != nil {
		return models.Brief{}, err
	}
	b.AudioURL = audio.String
	return b, nil
}
