package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example/newsbrief-api/auth"

	"github.com/gin-gonic/gin"
)

func subscribeHandlerRequest(t *testing.T, body string, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/community/subscribe", func(c *gin.Context) {
		if claims != nil {
			c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		}
		SubscribeToSource(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/community/subscribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeToSourceMissingClaims(t *testing.T) {
	rec := subscribeHandlerRequest(t, `{"sourceId":"s1","action":"subscribe"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSubscribeToSourceBadInput(t *testing.T) {
	claims := &auth.Claims{Subject: "user-123"}

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing sourceId", `{"action":"subscribe"}`},
		{"unknown action", `{"sourceId":"s1","action":"follow"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := subscribeHandlerRequest(t, tc.body, claims)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}
