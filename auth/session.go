package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// sessionValidityWindow is how much lifetime a token must have left before
// we stop treating it as usable and refresh instead.
const sessionValidityWindow = 5 * time.Minute

// Session is a credential issued by the auth service.
type Session struct {
	AccessToken string    `json:"access_token"`
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UsableAt reports whether the session's token still has more than the
// validity window remaining at the given instant. A malformed token is
// simply unusable, never an error.
func (s *Session) UsableAt(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	exp, ok := TokenExpiry(s.AccessToken)
	if !ok {
		return false
	}
	return exp.Sub(now) > sessionValidityWindow
}

// TokenExpiry reads the exp claim out of a JWT without verifying the
// signature. The payload is the second dot-separated segment, base64url
// JSON with expiry in unix seconds.
func TokenExpiry(token string) (time.Time, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, false
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return time.Time{}, false
	}
	return time.Unix(claims.Exp, 0), true
}
