// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"time"

	"example/newsbrief-api/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.POST("/api/stripe/webhook", StripeWebhook)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	// Community sources render for anonymous visitors; claims only add
	// the per-source isSubscribed flag.
	router.GET("/community/sources", auth.OptionalMiddleware(verifier), GetCommunitySources)

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return UpsertProfileFromClaims(c.Request.Context(), claims)
		},
	}))
	protected.GET("/me", Me)
	protected.GET("/briefs", GetBriefs)
	protected.POST("/briefs/generate", GenerateBrief)
	protected.GET("/jobs/:jobid", GetJobStatus)
	protected.POST("/community/subscribe", SubscribeToSource)
	protected.GET("/profile/sources", GetMySources)
	protected.POST("/profile/sources", ManageSource)
	protected.GET("/profile/subscriptions", GetSubscriptions)
	protected.POST("/profile/subscriptions", ManageSubscription)
	protected.GET("/profile/user", GetUserProfile)
	protected.POST("/profile/user", UpdateUserProfile)
	protected.POST("/api/billing/create-checkout-session", CreateCheckoutSession)
	protected.POST("/api/billing/portal-session", CreatePortalSession)
	protected.POST("/api/billing/update-plan", UpdateUserPlan)

	return router, nil
}
