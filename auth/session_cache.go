package auth

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// cacheEntryTTL bounds how long a cached session is trusted before the
	// next caller re-validates it against the fetcher.
	cacheEntryTTL = 2 * time.Minute

	sessionFetchTimeout = 30 * time.Second

	bootstrapAttempts = 3
)

// SessionFetcher retrieves the current session from the auth service.
// A (nil, nil) result means signed out.
type SessionFetcher interface {
	FetchSession(ctx context.Context) (*Session, error)
}

// SessionCache is a single-entry, time-windowed cache of a session.
// It avoids redundant fetches while guaranteeing callers never observe an
// expired credential without a refresh attempt.
type SessionCache struct {
	fetcher SessionFetcher
	now     func() time.Time
	backoff time.Duration

	mu           sync.Mutex
	session      *Session
	fetchedAt    time.Time
	validAtFetch bool
}

// NewSessionCache builds a cache around the given fetcher.
func NewSessionCache(fetcher SessionFetcher) *SessionCache {
	return &SessionCache{
		fetcher: fetcher,
		now:     time.Now,
		backoff: time.Second,
	}
}

// GetValidSession returns a usable session, fetching a fresh one when the
// cached entry is stale (older than the entry TTL) or no longer within the
// validity window. On fetch failure the previous session is returned as a
// degraded fallback if it is still usable. A nil session with nil error
// means the user is signed out.
func (c *SessionCache) GetValidSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	now := c.now()
	if !c.fetchedAt.IsZero() && now.Sub(c.fetchedAt) < cacheEntryTTL && c.session.UsableAt(now) {
		s := c.session
		c.mu.Unlock()
		return s, nil
	}
	fallback := c.session
	c.mu.Unlock()

	startedAt := c.now()
	fetchCtx, cancel := context.WithTimeout(ctx, sessionFetchTimeout)
	defer cancel()

	fresh, err := c.fetcher.FetchSession(fetchCtx)
	if err != nil {
		if fallback.UsableAt(c.now()) {
			log.Printf("session fetch failed, serving cached session: %v", err)
			return fallback, nil
		}
		return nil, err
	}

	c.store(fresh, startedAt)
	return fresh, nil
}

// Invalidate drops the cached entry, forcing a fetch on next access.
func (c *SessionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.fetchedAt = time.Time{}
	c.validAtFetch = false
}

// OnAuthStateChange applies an external auth event. A nil session
// (sign-out) invalidates the entry; a new session updates it eagerly.
func (c *SessionCache) OnAuthStateChange(session *Session) {
	if session == nil {
		c.Invalidate()
		return
	}
	c.store(session, c.now())
}

// Bootstrap performs the initial session fetch, retrying up to twice with
// backoff. Callers treat a final error as signed out.
func (c *SessionCache) Bootstrap(ctx context.Context) (*Session, error) {
	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt < bootstrapAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		session, err := c.GetValidSession(ctx)
		if err == nil {
			return session, nil
		}
		lastErr = err
		log.Printf("session bootstrap attempt %d failed: %v", attempt+1, err)
	}
	return nil, lastErr
}

// store overwrites the entry unless a newer fetch already landed. Fetches
// are not serialized, so a slow fetch must not clobber a fresher result.
func (c *SessionCache) store(session *Session, startedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if startedAt.Before(c.fetchedAt) {
		return
	}
	c.session = session
	c.fetchedAt = startedAt
	c.validAtFetch = session.UsableAt(startedAt)
}
