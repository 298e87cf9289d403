package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

// GetUserProfile returns the caller's profile, bootstrapping the row on
// first sight of a new subject.
func GetUserProfile(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	profile, err := getProfile(ctx, claims.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		if err := UpsertProfileFromClaims(ctx, claims); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
			return
		}
		profile, err = getProfile(ctx, claims.Subject)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": gin.H{
		"userId":       profile.UserID,
		"email":        profile.Email.String,
		"name":         profile.Name.String,
		"displayName":  profile.DisplayName.String,
		"timezone":     profile.Timezone.String,
		"deliveryTime": profile.DeliveryTime.String,
		"voice":        profile.Voice.String,
		"plan":         profile.Plan,
		"createdAt":    profile.CreatedAt,
	}})
}

// UpdateUserProfile applies allow-listed fields from an arbitrary JSON
// object. Unknown keys are dropped rather than rejected.
func UpdateUserProfile(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
		return
	}

	fields := filterProfileFields(body)
	if len(fields) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "updated": 0})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := updateProfileFields(ctx, claims.Subject, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": len(fields)})
}
