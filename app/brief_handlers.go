package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"example/newsbrief-api/app/config"
	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
)

// GetBriefs lists the caller's recent briefs, falling back to the official
// demo brief when they have none yet.
func GetBriefs(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{"briefs": []models.Brief{}, "demo": false})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	briefs, err := listBriefs(ctx, claims.Subject, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load briefs"})
		return
	}

	if len(briefs) > 0 {
		c.JSON(http.StatusOK, gin.H{"briefs": briefs, "demo": false})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil || cfg.Auth.OfficialUserID == "" {
		c.JSON(http.StatusOK, gin.H{"briefs": briefs, "demo": false})
		return
	}

	demo, found, err := getDemoBrief(ctx, cfg.Auth.OfficialUserID)
	if err != nil {
		log.Printf("demo brief lookup failed: %v", err)
		c.JSON(http.StatusOK, gin.H{"briefs": briefs, "demo": false})
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"briefs": briefs, "demo": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"briefs": []models.Brief{demo}, "demo": true})
}

// GenerateBrief creates a generation job over the caller's subscribed
// sources and fans the batches out to the queue.
func GenerateBrief(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	total, err := countSubscribed(ctx, claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count subscriptions"})
		return
	}
	if total == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no subscribed sources to brief"})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("LoadConfig failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	batchSize := cfg.Briefer.BatchSize
	if batchSize <= 0 {
		batchSize = 10 // sane fallback
	}
	totalBatches := batchCount(total, batchSize)

	jobID, err := createJob(ctx, claims.Subject, total, batchSize, totalBatches)
	if err != nil {
		log.Printf("failed to create job for user=%s: %v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	if cfg.QueueURL == "" {
		log.Printf("QUEUE_URL missing in config; skipping enqueue for user=%s", claims.Subject)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Printf("failed to load AWS config for SQS: %v", err)
		} else {
			sqsClient := sqs.NewFromConfig(awsCfg)

			for batchIndex := 0; batchIndex < totalBatches; batchIndex++ {
				jobMsg := models.JobMessage{
					UserID:     claims.Subject,
					BatchIndex: batchIndex,
					NumSources: batchSize,
					JobID:      jobID,
					Model:      cfg.Briefer.Model,
				}

				body, err := json.Marshal(jobMsg)
				if err != nil {
					log.Printf("failed to marshal JobMessage for user=%s batch=%d: %v",
						claims.Subject, batchIndex, err)
					continue
				}

				_, err = sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
					QueueUrl:    &cfg.QueueURL,
					MessageBody: aws.String(string(body)),
				})
				if err != nil {
					log.Printf("failed to send SQS message for user=%s batch=%d: %v",
						claims.Subject, batchIndex, err)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":  jobID,
		"batches": totalBatches,
		"sources": total,
	})
}

// GetJobStatus returns status and batch progress for a caller-owned job.
func GetJobStatus(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	jobID := c.Param("jobid")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing job id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := findJobStatus(ctx, jobID, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": status,
	})
}
