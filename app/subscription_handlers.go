package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

// GetSubscriptions lists the caller's subscription rows, including the
// unsubscribed ones they can toggle back on.
func GetSubscriptions(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	if db == nil {
		c.JSON(http.StatusOK, gin.H{"subscriptions": []models.Subscription{}, "sources": []models.NewsSource{}})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	subs, err := listSubscriptions(ctx, claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscriptions"})
		return
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.SourceID)
	}
	sources, err := sourcesByIDs(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "sources": sources})
}

type manageSubscriptionRequest struct {
	SourceID string `json:"sourceId"`
	Action   string `json:"action"`
}

// ManageSubscription handles toggling and removal from the profile page.
// Unsubscribing a source that was never subscribed succeeds as a no-op.
func ManageSubscription(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var req manageSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sourceId"})
		return
	}
	if req.Action != "subscribe" && req.Action != "unsubscribe" && req.Action != "remove" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	switch req.Action {
	case "subscribe":
		source, err := getSource(ctx, req.SourceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "source not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load source"})
			return
		}

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
		if changed {
			bumpSubscriberCount(ctx, source.ID, +1, source.SubscribersCount)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "isSubscribed": true})

	case "unsubscribe":
		changed, err := markUnsubscribed(ctx, claims.Subject, req.SourceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe"})
			return
		}
		if changed {
			bumpSubscriberCount(ctx, req.SourceID, -1, 1)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "isSubscribed": false})

	case "remove":
		removed, wasSubscribed, err := removeSubscription(ctx, claims.Subject, req.SourceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove subscription"})
			return
		}
		if removed && wasSubscribed {
			bumpSubscriberCount(ctx, req.SourceID, -1, 1)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
	}
}
