package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ServiceSessionFetcher exchanges the elevated service key for a session at
// the auth service's token endpoint. The resulting credential is what the
// worker and engine client present for cross-user reads and writes.
type ServiceSessionFetcher struct {
	TokenURL   string
	ServiceKey string
	Client     *http.Client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// FetchSession implements SessionFetcher.
func (f *ServiceSessionFetcher) FetchSession(ctx context.Context) (*Session, error) {
	body, err := json.Marshal(map[string]string{"grant_type": "service_key"})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", f.ServiceKey)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&msg)
		return nil, fmt.Errorf("token endpoint http %d: %s", res.StatusCode, msg.Message)
	}

	var tr tokenResponse
	if err := json.NewDecoder(res.Body).Decode(&tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned empty access token")
	}

	expiresAt, ok := TokenExpiry(tr.AccessToken)
	if !ok && tr.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	return &Session{
		AccessToken: tr.AccessToken,
		UserID:      tr.User.ID,
		ExpiresAt:   expiresAt,
	}, nil
}
