// HTTP client for the summarization engine. The engine ingests a feed and
// returns a digest of its recent items; calls carry the elevated service
// session as a bearer token.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example/newsbrief-api/app/config"
	"example/newsbrief-api/auth"
)

var engineHTTPClient = &http.Client{Timeout: 60 * time.Second}

type BriefEngine struct {
	baseURL  string
	model    string
	maxItems int
	sessions *auth.SessionCache
	httpc    *http.Client
}

func NewBriefEngine(cfg *config.Config, sessions *auth.SessionCache) *BriefEngine {
	return &BriefEngine{
		baseURL:  cfg.Briefer.EngineURL,
		model:    cfg.Briefer.Model,
		maxItems: cfg.Briefer.MaxItems,
		sessions: sessions,
		httpc:    engineHTTPClient,
	}
}

type summarizeRequest struct {
	FeedURL    string `json:"feed_url"`
	SourceName string `json:"source_name"`
	Model      string `json:"model,omitempty"`
	MaxItems   int    `json:"max_items,omitempty"`
}

// SourceDigest is the engine's summary of one source.
type SourceDigest struct {
	SourceName string `json:"source_name"`
	Headline   string `json:"headline"`
	Summary    string `json:"summary"`
}

type engineError struct {
	Status int
	Body   string
}

func (e engineError) Error() string { return fmt.Sprintf("engine http %d: %s", e.Status, e.Body) }

// Summarize asks the engine to digest one source. Retries 429/5xx up to
// three attempts with linear backoff, like any polite API consumer.
func (e *BriefEngine) Summarize(ctx context.Context, sourceName, feedURL string) (*SourceDigest, error) {
	if e.baseURL == "" {
		return nil, errors.New("engine URL not configured")
	}

	session, err := e.sessions.GetValidSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine auth: %w", err)
	}
	if session == nil {
		return nil, errors.New("engine auth: no service session")
	}

	body, err := json.Marshal(summarizeRequest{
		FeedURL:    feedURL,
		SourceName: sourceName,
		Model:      e.model,
		MaxItems:   e.maxItems,
	})
	if err != nil {
		return nil, err
	}

	var last engineError
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/summarize", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+session.AccessToken)

		res, err := e.httpc.Do(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode == http.StatusOK {
			var digest SourceDigest
			err := json.NewDecoder(res.Body).Decode(&digest)
			res.Body.Close()
			if err != nil {
				return nil, err
			}
			return &digest, nil
		}

		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&msg)
		res.Body.Close()
		last = engineError{Status: res.StatusCode, Body: msg.Message}

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(250*(attempt+1)) * time.Millisecond):
			}
			continue
		}
		break
	}
	return nil, last
}
