package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"example/newsbrief-api/app/config"
	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

// GetCommunitySources lists the official, community and newest public
// source partitions. Auth is optional; with claims present each source
// carries an isSubscribed flag.
func GetCommunitySources(c *gin.Context) {
	if db == nil {
		c.JSON(http.StatusOK, gin.H{
			"official":  []models.NewsSource{},
			"community": []models.NewsSource{},
			"newly":     []models.NewsSource{},
		})
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("LoadConfig failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	official, err := listOfficialSources(ctx, cfg.Auth.OfficialUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}
	community, err := listCommunitySources(ctx, cfg.Auth.OfficialUserID, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}
	newly, err := listNewestSources(ctx, cfg.Auth.OfficialUserID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}

	if claims, ok := auth.ClaimsFromContext(c.Request.Context()); ok {
		subscribed, err := subscribedSourceIDs(ctx, claims.Subject)
		if err != nil {
			// Personalization is best-effort on this public endpoint.
			log.Printf("subscription flags failed user=%s err=%v", claims.Subject, err)
		} else {
			flagSubscribed(official, subscribed)
			flagSubscribed(community, subscribed)
			flagSubscribed(newly, subscribed)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"official":  official,
		"community": community,
		"newly":     newly,
	})
}

func flagSubscribed(sources []models.NewsSource, subscribed map[string]bool) {
	for i := range sources {
		sources[i].IsSubscribed = subscribed[sources[i].ID]
	}
}

type subscribeRequest struct {
	SourceID string `json:"sourceId"`
	Action   string `json:"action"`
}

// SubscribeToSource subscribes or unsubscribes the caller to a source,
// enforcing the plan quota on subscribe and best-effort adjusting the
// denormalized subscriber counter afterwards.
func SubscribeToSource(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sourceId"})
		return
	}
	if req.Action != "subscribe" && req.Action != "unsubscribe" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	source, err := getSource(ctx, req.SourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source"})
		return
	}

	if req.Action == "subscribe" {
		changed, err := subscribeWithQuota(ctx, claims.Subject, source.ID)
		if err != nil {
			var qe quotaError
			if errors.As(err, &qe) {
				c.JSON(http.StatusForbidden, gin.H{
					"error":        "subscription limit reached",
					"limit":        qe.Quota.Limit,
					"currentCount": qe.Quota.CurrentCount,
					"plan":         qe.Quota.Plan,
				})
				return
			}
			log.Printf("subscribe failed user=%s source=%s err=%v", claims.Subject, source.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
			return
		}

		count := source.SubscribersCount
		if changed {
			count = bumpSubscriberCount(ctx, source.ID, +1, source.SubscribersCount)
		}

		c.JSON(http.StatusOK, gin.H{
			"success":            true,
			"isSubscribed":       true,
			"newSubscriberCount": count,
		})
		return
	}

	changed, err := markUnsubscribed(ctx, claims.Subject, source.ID)
	if err != nil {
		log.Printf("unsubscribe failed user=%s source=%s err=%v", claims.Subject, source.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
		return
	}

	count := source.SubscribersCount
	if changed {
		count = bumpSubscriberCount(ctx, source.ID, -1, source.SubscribersCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"isSubscribed":       false,
		"newSubscriberCount": count,
	})
}
