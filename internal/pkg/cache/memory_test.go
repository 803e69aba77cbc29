package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache("orders").(*memoryCache)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	val, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	now = now.Add(2 * time.Minute)

	val, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, val, "entry should have expired")

	val, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", val, "zero ttl never expires")
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache("orders")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "missing"))

	val, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestMemoryCache_SetNX(t *testing.T) {
	c := NewMemoryCache("orders").(*memoryCache)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	val, _ := c.Get(ctx, "k")
	assert.Equal(t, "first", val)

	now = now.Add(2 * time.Minute)
	ok, err = c.SetNX(ctx, "k", "third", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "an expired key can be claimed again")
}

func TestMemoryCache_SetNXConcurrent(t *testing.T) {
	c := NewMemoryCache("orders")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.SetNX(ctx, "k", "v", time.Minute); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
