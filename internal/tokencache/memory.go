package tokencache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/arneg82/migAz/internal/core"
)

// DefaultSkew is subtracted from a token's lifetime so that callers never
// receive a token that expires while the request is in flight.
const DefaultSkew = 5 * time.Minute

var _ core.TokenCache = (*Memory)(nil)

// Memory is a process-lifetime token cache. Nothing is persisted.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]core.CachedToken
	skew   time.Duration
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tokens: make(map[string]core.CachedToken),
		skew:   DefaultSkew,
		now:    time.Now,
	}
}

// Key builds the cache key for an authority, resource and (optional) user.
func Key(authority, resource, user string) string {
	return strings.ToLower(authority) + "|" + resource + "|" + strings.ToLower(user)
}

func (m *Memory) Get(_ context.Context, key string) (core.CachedToken, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[key]
	return t, ok, nil
}

func (m *Memory) Set(_ context.Context, entry core.CachedToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.CachedAt.IsZero() {
		entry.CachedAt = m.now()
	}
	m.tokens[entry.Key] = entry
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, key)
	return nil
}

func (m *Memory) ListActive(_ context.Context) ([]core.CachedToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active := make([]core.CachedToken, 0)
	now := m.now()

	for _, t := range m.tokens {
		if !t.Expired(now, m.skew) {
			active = append(active, t)
		}
	}

	return active, nil
}

func (m *Memory) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var deletedCount int64

	for key, t := range m.tokens {
		// expired entries with a refresh token can still be renewed silently
		if t.Expired(now, m.skew) && t.Token.RefreshToken == "" {
			delete(m.tokens, key)
			deletedCount++
		}
	}

	return deletedCount, nil
}
