package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

// GetMySources lists the sources the caller owns.
func GetMySources(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	if db == nil {
		c.JSON(http.StatusOK, gin.H{"sources": []models.NewsSource{}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sources, err := listOwnedSources(ctx, claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

type sourceActionRequest struct {
	Action      string `json:"action"`
	SourceID    string `json:"sourceId"`
	Name        string `json:"name"`
	FeedURL     string `json:"feedUrl"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// ManageSource creates, updates or deletes a caller-owned source. A new
// source is auto-subscribed for its creator so the next brief includes it.
func ManageSource(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req sourceActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	switch req.Action {
	case "create":
		if req.Name == "" || req.FeedURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and feedUrl are required"})
			return
		}

		source, err := insertSource(ctx, claims.Subject, req.Name, req.FeedURL, req.Description, req.IsPublic)
		if err != nil {
			log.Printf("insertSource failed user=%s: %v", claims.Subject, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create source"})
			return
		}

		// Creator subscription skips the quota check: owning a source
		// implies wanting it briefed. Failure here leaves the source
		// created and is reported as drift.
		if err := autoSubscribe(ctx, claims.Subject, source.ID); err != nil {
			log.Printf("auto-subscribe drift user=%s source=%s err=%v", claims.Subject, source.ID, err)
		} else {
			source.SubscribersCount = bumpSubscriberCount(ctx, source.ID, +1, source.SubscribersCount)
			source.IsSubscribed = true
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "source": source})

	case "update":
		if req.SourceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing sourceId"})
			return
		}
		updated, err := updateSource(ctx, claims.Subject, req.SourceID, req.Name, req.Description, req.IsPublic)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update source"})
			return
		}
		if !updated {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	case "delete":
		if req.SourceID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing sourceId"})
			return
		}
		deleted, err := deleteSource(ctx, claims.Subject, req.SourceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete source"})
			return
		}
		if !deleted {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
	}
}

// autoSubscribe writes a subscribed row for the creator without touching
// the quota path.
func autoSubscribe(ctx context.Context, userID, sourceID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertSubscription(ctx, tx, userID, sourceID, models.Subscribed); err != nil {
		return err
	}
	return tx.Commit()
}
