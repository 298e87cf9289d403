// Package app provides public health and authenticated identity endpoints.
package app

import (
	"net/http"

	"example/newsbrief-api/app/models"
	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns plan and subscription usage for the authenticated user.
func Me(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	if db == nil {
		c.JSON(http.StatusOK, gin.H{
			"plan":              models.PlanFree,
			"subscriptionsUsed": 0,
			"limit":             FreeSubscriptionLimit,
			"remaining":         FreeSubscriptionLimit,
		})
		return
	}

	quota, err := CheckSubscriptionLimit(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
		return
	}

	remaining := quota.Limit - quota.CurrentCount
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":              quota.Plan,
		"subscriptionsUsed": quota.CurrentCount,
		"limit":             quota.Limit,
		"remaining":         remaining,
	})
}
