package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"example/newsbrief-api/app/config"
	"example/newsbrief-api/app/models"
)

// ProcessBatch digests one batch of the user's subscribed sources and writes
// a brief row. Called by the queue worker for each JobMessage.
func ProcessBatch(ctx context.Context, cfg *config.Config, engine *BriefEngine, job models.JobMessage) error {
	start := time.Now()

	offset := job.BatchIndex * job.NumSources

	log.Printf(
		"Processing batch: user=%s job_id=%s batch_index=%d num_sources=%d offset=%d workers=%s",
		job.UserID, job.JobID, job.BatchIndex, job.NumSources, offset, os.Getenv("WORKERS"),
	)

	sources, err := loadSubscribedSources(ctx, job.UserID, job.NumSources, offset)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		log.Printf("no subscribed sources for user=%s (batch_index=%d)", job.UserID, job.BatchIndex)
		return nil
	}

	numWorkers := GetWorkerCount()
	log.Printf("Summarizing %d sources with %d workers", len(sources), numWorkers)

	work := make(chan models.NewsSource, len(sources))
	results := make(chan *SourceDigest, len(sources))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for src := range work {
				digest, err := engine.Summarize(ctx, src.Name, src.FeedURL)
				if err != nil {
					log.Printf("worker %d: error summarizing source %s: %v", id, src.ID, err)
					continue
				}
				results <- digest
			}
		}(i)
	}

	// Feed work
	go func() {
		defer close(work)
		for _, src := range sources {
			work <- src
		}
	}()

	// Close results once ALL workers are done
	go func() {
		wg.Wait()
		close(results)
	}()

	var digests []*SourceDigest
	for d := range results {
		digests = append(digests, d)
	}

	if len(digests) == 0 {
		log.Printf("no digests produced for user=%s batch_index=%d", job.UserID, job.BatchIndex)
		return nil
	}

	title, summary := composeBrief(time.Now(), digests)

	// Separate timeout for the DB write
	ctx2, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := insertBrief(ctx2, job.UserID, title, summary, ""); err != nil {
		log.Printf("insertBrief failed for user=%s batch_index=%d: %v", job.UserID, job.BatchIndex, err)
		return err
	}

	log.Printf(
		"Batch complete: user=%s job_id=%s batch_index=%d num_digests=%d took=%s",
		job.UserID, job.JobID, job.BatchIndex, len(digests), time.Since(start),
	)

	return nil
}

// composeBrief flattens per-source digests into one readable brief body.
func composeBrief(now time.Time, digests []*SourceDigest) (title, summary string) {
	title = fmt.Sprintf("Your briefing for %s", now.Format("January 2, 2006"))

	var sb strings.Builder
	for i, d := range digests {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(d.SourceName)
		if d.Headline != "" {
			sb.WriteString(": ")
			sb.WriteString(d.Headline)
		}
		sb.WriteString("\n")
		sb.WriteString(d.Summary)
	}
	return title, sb.String()
}
