// Runs one brief batch locally against the configured DB and engine.
// Handy for testing generation without the queue in the loop.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"example/newsbrief-api/app"
	"example/newsbrief-api/app/config"
	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"
)

func main() {
	userID := flag.String("user", "", "user id to brief")
	batchIndex := flag.Int("batch", 0, "batch index")
	numSources := flag.Int("sources", 10, "sources per batch")
	flag.Parse()

	if *userID == "" {
		log.Fatal("missing -user")
	}

	start := time.Now()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()

	sessions := auth.NewSessionCache(&auth.ServiceSessionFetcher{
		TokenURL:   cfg.Auth.TokenURL,
		ServiceKey: cfg.Auth.ServiceKey,
	})
	engine := app.NewBriefEngine(cfg, sessions)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := app.ProcessBatch(ctx, cfg, engine, models.JobMessage{
		UserID:     *userID,
		BatchIndex: *batchIndex,
		NumSources: *numSources,
		Model:      cfg.Briefer.Model,
	}); err != nil {
		log.Fatalf("batch failed: %v", err)
	}
	log.Printf("Took %s", time.Since(start))
}
