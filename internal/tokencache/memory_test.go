package tokencache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arneg82/migAz/internal/core"
)

func newTestCache(now time.Time) *Memory {
	m := NewMemory()
	m.now = func() time.Time { return now }
	return m
}

func TestKey(t *testing.T) {
	assert.Equal(t,
		Key("https://login.example/common", "https://resource.example", "alice@example.com"),
		Key("https://LOGIN.example/common", "https://resource.example", "Alice@Example.com"))
	assert.NotEqual(t,
		Key("https://login.example/common", "https://a.example", ""),
		Key("https://login.example/common", "https://b.example", ""))
}

func TestMemory_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestCache(now)

	key := Key("https://login.example/common", "https://resource.example", "")
	_, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, core.CachedToken{
		Key:   key,
		Token: core.TokenResult{AccessToken: "at", ExpiresOn: now.Add(time.Hour)},
	}))

	got, ok, err := m.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "at", got.Token.AccessToken)
	assert.Equal(t, now, got.CachedAt)
	assert.False(t, got.Expired(now, DefaultSkew))

	require.NoError(t, m.Invalidate(ctx, key))
	_, ok, _ = m.Get(ctx, key)
	assert.False(t, ok)
}

func TestMemory_ListActiveAndDeleteExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestCache(now)

	entries := []core.CachedToken{
		{Key: "fresh", Token: core.TokenResult{ExpiresOn: now.Add(time.Hour)}},
		// inside the skew window counts as expired
		{Key: "almost", Token: core.TokenResult{ExpiresOn: now.Add(time.Minute)}},
		{Key: "stale", Token: core.TokenResult{ExpiresOn: now.Add(-time.Hour)}},
		{Key: "renewable", Token: core.TokenResult{ExpiresOn: now.Add(-time.Hour), RefreshToken: "rt"}},
	}
	for _, e := range entries {
		require.NoError(t, m.Set(ctx, e))
	}

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].Key)

	deleted, err := m.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, ok, _ := m.Get(ctx, "renewable")
	assert.True(t, ok, "entries with a refresh token are kept")
}
