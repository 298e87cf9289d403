// The worker consumes brief-generation batches from SQS. Each record is one
// JobMessage; the handler digests the batch and bumps job progress.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"example/newsbrief-api/app"
	"example/newsbrief-api/app/config"
	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
)

var (
	cfg    *config.Config
	engine *app.BriefEngine
)

// init runs once per Lambda container (cold start)
func init() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()

	sessions := auth.NewSessionCache(&auth.ServiceSessionFetcher{
		TokenURL:   cfg.Auth.TokenURL,
		ServiceKey: cfg.Auth.ServiceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := sessions.Bootstrap(ctx); err != nil {
		// The cache retries on first use; a cold container without the
		// auth service reachable should still come up.
		log.Printf("service session bootstrap failed: %v", err)
	}

	engine = app.NewBriefEngine(cfg, sessions)
}

// Handler processes an SQS batch. A failed record is returned as a batch
// item failure so SQS redelivers only that message.
func Handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var failures []events.SQSBatchItemFailure

	for _, record := range event.Records {
		var job models.JobMessage
		if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
			log.Printf("dropping unparseable message id=%s: %v", record.MessageId, err)
			continue
		}

		if err := app.ProcessBatch(ctx, cfg, engine, job); err != nil {
			log.Printf("batch failed user=%s job_id=%s batch_index=%d: %v",
				job.UserID, job.JobID, job.BatchIndex, err)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}

		if job.JobID != "" {
			if err := app.UpdateJobProgress(ctx, job.JobID); err != nil {
				log.Printf("job progress update failed job_id=%s: %v", job.JobID, err)
			}
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(Handler)
}
