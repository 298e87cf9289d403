package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example/newsbrief-api/app/config"
	"example/newsbrief-api/auth"
)

type staticSessionFetcher struct {
	token string
	calls int
}

func (f *staticSessionFetcher) FetchSession(ctx context.Context) (*auth.Session, error) {
	f.calls++
	return &auth.Session{
		AccessToken: f.token,
		UserID:      "service",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func newTestEngine(baseURL string) *BriefEngine {
	cfg := &config.Config{}
	cfg.Briefer.EngineURL = baseURL
	cfg.Briefer.Model = "digest-small"
	cfg.Briefer.MaxItems = 5
	return NewBriefEngine(cfg, auth.NewSessionCache(&staticSessionFetcher{token: "svc-token"}))
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/summarize" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Fatalf("Authorization = %q", got)
		}

		var req struct {
			FeedURL    string `json:"feed_url"`
			SourceName string `json:"source_name"`
			Model      string `json:"model"`
			MaxItems   int    `json:"max_items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.FeedURL != "https://feeds.example.test/rss" || req.Model != "digest-small" || req.MaxItems != 5 {
			t.Fatalf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(SourceDigest{
			SourceName: req.SourceName,
			Headline:   "Markets wobble",
			Summary:    "Stocks dipped on rate fears.",
		})
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	digest, err := engine.Summarize(context.Background(), "Example Wire", "https://feeds.example.test/rss")
	if err != nil {
		t.Fatalf("Summarize error = %v", err)
	}
	if digest.SourceName != "Example Wire" || digest.Headline != "Markets wobble" {
		t.Fatalf("Summarize digest = %+v", digest)
	}
}

func TestSummarizeRetriesServerErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(SourceDigest{SourceName: "Wire", Summary: "ok"})
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	digest, err := engine.Summarize(context.Background(), "Wire", "https://feeds.example.test/rss")
	if err != nil {
		t.Fatalf("Summarize after retries error = %v", err)
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
	if digest.Summary != "ok" {
		t.Fatalf("Summarize digest = %+v", digest)
	}
}

func TestSummarizeGivesUpOnClientError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "bad feed"})
	}))
	defer srv.Close()

	engine := newTestEngine(srv.URL)
	if _, err := engine.Summarize(context.Background(), "Wire", "not-a-url"); err == nil {
		t.Fatalf("Summarize should fail on 422")
	}
	if hits != 1 {
		t.Fatalf("422 should not be retried, got %d attempts", hits)
	}
}

func TestSummarizeReusesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SourceDigest{SourceName: "Wire", Summary: "ok"})
	}))
	defer srv.Close()

	fetcher := &staticSessionFetcher{token: "svc-token"}
	cfg := &config.Config{}
	cfg.Briefer.EngineURL = srv.URL
	engine := NewBriefEngine(cfg, auth.NewSessionCache(fetcher))

	for i := 0; i < 3; i++ {
		if _, err := engine.Summarize(context.Background(), "Wire", "https://feeds.example.test/rss"); err != nil {
			t.Fatalf("Summarize #%d error = %v", i, err)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("session fetched %d times, want 1", fetcher.calls)
	}
}
