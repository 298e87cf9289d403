package app

import (
	"context"
	"database/sql"

	"example/newsbrief-api/app/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const sourceColumns = `id, owner_user_id, name, feed_url, description, is_public, subscribers_count, status, created_at`

func scanSource(row interface{ Scan(...any) error }) (models.NewsSource, error) {
	var s models.NewsSource
	var owner sql.NullString
	var description sql.NullString
	err := row.Scan(
		&s.ID,
		&owner,
		&s.Name,
		&s.FeedURL,
		&description,
		&s.IsPublic,
		&s.SubscribersCount,
		&s.Status,
		&s.CreatedAt,
	)
	if err != nil {
		return models.NewsSource{}, err
	}
	if owner.Valid {
		s.OwnerUserID = &owner.String
	}
	s.Description = description.String
	return s, nil
}

func getSource(ctx context.Context, sourceID string) (models.NewsSource, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE id = $1;
	`, sourceID)
	return scanSource(row)
}

func querySources(ctx context.Context, q string, args ...any) ([]models.NewsSource, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.NewsSource{}
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// listOfficialSources returns platform-owned sources: rows without an owner
// plus rows owned by the official account.
func listOfficialSources(ctx context.Context, officialUserID string) ([]models.NewsSource, error) {
	return querySources(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE status = 'active'
		  AND (owner_user_id IS NULL OR owner_user_id = $1)
		ORDER BY subscribers_count DESC, created_at ASC;
	`, officialUserID)
}

func listCommunitySources(ctx context.Context, officialUserID string, limit int) ([]models.NewsSource, error) {
	return querySources(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE status = 'active'
		  AND is_public
		  AND owner_user_id IS NOT NULL
		  AND owner_user_id <> $1
		ORDER BY subscribers_count DESC, created_at DESC
		LIMIT $2;
	`, officialUserID, limit)
}

func listNewestSources(ctx context.Context, officialUserID string, limit int) ([]models.NewsSource, error) {
	return querySources(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE status = 'active'
		  AND is_public
		  AND owner_user_id IS NOT NULL
		  AND owner_user_id <> $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, officialUserID, limit)
}

func listOwnedSources(ctx context.Context, ownerUserID string) ([]models.NewsSource, error) {
	return querySources(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE owner_user_id = $1
		ORDER BY created_at DESC;
	`, ownerUserID)
}

func insertSource(ctx context.Context, ownerUserID, name, feedURL, description string, isPublic bool) (models.NewsSource, error) {
	row := db.QueryRowContext(ctx, `
		INSERT INTO news_sources (id, owner_user_id, name, feed_url, description, is_public, subscribers_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 'active', now())
		RETURNING `+sourceColumns+`;
	`, uuid.NewString(), ownerUserID, name, feedURL, nullIfEmpty(description), isPublic)
	return scanSource(row)
}

// updateSource mutates only rows the caller owns. The ownership filter is
// the route-level access-control contract; 0 rows affected means the source
// does not exist or belongs to someone else.
func updateSource(ctx context.Context, ownerUserID, sourceID, name, description string, isPublic bool) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE news_sources
		SET name = $1, description = $2, is_public = $3
		WHERE id = $4 AND owner_user_id = $5;
	`, name, nullIfEmpty(description), isPublic, sourceID, ownerUserID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func deleteSource(ctx context.Context, ownerUserID, sourceID string) (bool, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM news_sources
		WHERE id = $1 AND owner_user_id = $2;
	`, sourceID, ownerUserID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// subscribedSourceIDs returns the set of source ids the user is subscribed
// to, for flagging listings.
func subscribedSourceIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT source_id
		FROM subscriptions
		WHERE user_id = $1 AND status = 'subscribed';
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// loadSubscribedSources reads a batch of the user's subscribed sources using
// LIMIT/OFFSET. Example: limit = batchSize, offset = batchIndex * limit.
func loadSubscribedSources(ctx context.Context, userID string, limit, offset int) ([]models.NewsSource, error) {
	return querySources(ctx, `
		SELECT ns.id, ns.owner_user_id, ns.name, ns.feed_url, ns.description, ns.is_public, ns.subscribers_count, ns.status, ns.created_at
		FROM news_sources ns
		JOIN subscriptions s ON s.source_id = ns.id
		WHERE s.user_id = $1
		  AND s.status = 'subscribed'
		  AND ns.status = 'active'
		ORDER BY ns.created_at ASC
		LIMIT $2
		OFFSET $3;
	`, userID, limit, offset)
}

// sourcesByIDs fetches several sources at once.
func sourcesByIDs(ctx context.Context, ids []string) ([]models.NewsSource, error) {
	if len(ids) == 0 {
		return []models.NewsSource{}, nil
	}
	return querySources(ctx, `
		SELECT `+sourceColumns+`
		FROM news_sources
		WHERE id = ANY($1);
	`, pq.Array(ids))
}
