package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Hour))

	var got map[string]string
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "b", got["a"])
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache()
	var got string
	hit, err := c.GetJSON(context.Background(), "nope", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCache_ExpiredEntryIsMiss(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "k", "v", time.Hour))

	var got string
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, hit)

	// jump past the ttl: the entry must never be observable again
	now = now.Add(time.Hour + time.Second)
	hit, err = c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	// lazy eviction removed the entry
	c.mu.RLock()
	_, ok := c.entries["k"]
	c.mu.RUnlock()
	assert.False(t, ok)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "k", "v", 0))
	now = now.Add(1000 * time.Hour)

	var got string
	hit, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestMemoryCache_Del(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "a", 1, time.Hour))
	require.NoError(t, c.SetJSON(ctx, "b", 2, time.Hour))
	require.NoError(t, c.Del(ctx, "a", "b"))

	var got int
	hit, _ := c.GetJSON(ctx, "a", &got)
	assert.False(t, hit)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.SetJSON(ctx, "k", j, time.Hour)
				var got int
				_, _ = c.GetJSON(ctx, "k", &got)
			}
		}()
	}
	wg.Wait()
}
