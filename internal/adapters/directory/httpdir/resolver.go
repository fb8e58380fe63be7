package httpdir

import (
	"context"
	"errors"
	"sync"
	"time"

	"pdfshare/internal/ports/directory"
)

const DefaultCacheTTL = 5 * time.Minute

type cached struct {
	user directory.User
	err  error
	exp  time.Time
}

// Resolver implementa directory.UserDirectory con cache en memoria.
// Los "not found" también se cachean para no martillar upstream.
type Resolver struct {
	client *Client
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cached
	now   func() time.Time
}

var _ directory.UserDirectory = (*Resolver)(nil)

func NewResolver(client *Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{client: client, ttl: ttl, cache: map[string]cached{}, now: time.Now}
}

func (r *Resolver) Lookup(ctx context.Context, userID string) (directory.User, error) {
	if r == nil || r.client == nil || !r.client.IsConfigured() {
		return directory.User{}, ErrNotConfigured
	}

	now := r.now()
	r.mu.Lock()
	if c, ok := r.cache[userID]; ok && now.Before(c.exp) {
		r.mu.Unlock()
		return c.user, c.err
	}
	r.mu.Unlock()

	u, err := r.client.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, directory.ErrUserNotFound) {
		return directory.User{}, err
	}

	r.mu.Lock()
	r.cache[userID] = cached{user: u, err: err, exp: now.Add(r.ttl)}
	r.mu.Unlock()
	return u, err
}
