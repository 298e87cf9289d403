// Package auth provides gin middleware for enforcing bearer token auth.
package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MiddlewareConfig controls auth enforcement behavior.
type MiddlewareConfig struct {
	PublicPaths map[string]bool
	DisableAuth bool
	// OnAuthenticated runs after claims are verified, before the handler.
	// Used to bootstrap a profile row the first time a subject appears.
	OnAuthenticated func(c *gin.Context, claims *Claims) error
}

// Middleware enforces bearer token auth and injects claims into the request context.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableAuth || AuthDisabled() {
			claims := &Claims{
				Subject: "local-dev",
				Issuer:  "local",
				Raw:     map[string]any{"sub": "local-dev"},
			}
			ctx := WithClaims(c.Request.Context(), claims)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		if cfg.PublicPaths != nil && cfg.PublicPaths[c.FullPath()] {
			c.Next()
			return
		}

		if verifier == nil {
			respondUnauthorized(c, "auth verifier not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("auth failure: missing Authorization header path=%s", c.Request.URL.Path)
			respondUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := extractBearerToken(authHeader)
		if !ok {
			log.Printf("auth failure: malformed Authorization header path=%s", c.Request.URL.Path)
			respondUnauthorized(c, "invalid authorization header")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Printf("auth failure: token invalid path=%s err=%v", c.Request.URL.Path, err)
			respondUnauthorized(c, "invalid token")
			return
		}

		if cfg.OnAuthenticated != nil {
			if err := cfg.OnAuthenticated(c, claims); err != nil {
				log.Printf("auth hook failed sub=%s err=%v", claims.Subject, err)
			}
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalMiddleware injects claims when a valid bearer token is present but
// never rejects the request. Endpoints behind it personalize their response
// only when claims resolve.
func OptionalMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		token, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			// Anonymous access is fine; a bad token just loses personalization.
			c.Next()
			return
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
