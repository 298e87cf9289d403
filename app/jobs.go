package app

import (
	"context"
	"database/sql"
	"log"

	"example/newsbrief-api/app/models"
)

func createJob(ctx context.Context, userID string, totalSources, batchSize, totalBatches int) (string, error) {
	const q = `
        INSERT INTO jobs (id, user_id, total_sources, batch_size, total_batches, completed_batches, status, created_at, updated_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, 0, 'pending', now(), now())
        RETURNING id;
    `
	var jobID string
	if err := db.QueryRowContext(ctx, q, userID, totalSources, batchSize, totalBatches).Scan(&jobID); err != nil {
		return "", err
	}
	log.Printf("Created job %s for user=%s totalSources=%d totalBatches=%d", jobID, userID, totalSources, totalBatches)
	return jobID, nil
}

// UpdateJobProgress increments completed_batches for a job and sets
// status to 'running' or 'completed' accordingly.
func UpdateJobProgress(ctx context.Context, jobID string) error {
	const q = `
        UPDATE jobs
        SET
            completed_batches = completed_batches + 1,
            status = CASE
                WHEN completed_batches + 1 >= total_batches THEN 'completed'
                ELSE 'running'
            END,
            updated_at = now()
        WHERE id = $1;
    `

	res, err := db.ExecContext(ctx, q, jobID)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		log.Printf("UpdateJobProgress: no job row found for id=%s", jobID)
	}

	return nil
}

// findJobStatus fetches status and batch counts for a job, scoped to its
// owner so callers cannot watch someone else's job.
func findJobStatus(ctx context.Context, jobID, userID string) (models.JobStatus, error) {
	var js models.JobStatus

	const q = `
        SELECT id, status, completed_batches, total_batches
        FROM jobs
        WHERE id = $1 AND user_id = $2;
    `

	row := db.QueryRowContext(ctx, q, jobID, userID)
	if err := row.Scan(&js.ID, &js.Status, &js.CompletedBatches, &js.TotalBatches); err != nil {
		if err == sql.ErrNoRows {
			return models.JobStatus{}, err
		}
		return models.JobStatus{}, err
	}

	return js, nil
}
