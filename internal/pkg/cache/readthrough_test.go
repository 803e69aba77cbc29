package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID string `json:"id"`
}

func TestReadThrough_LoadCachesResult(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache("orders"), time.Minute)
	ctx := context.Background()
	var calls atomic.Int32

	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		return payload{ID: "x"}, nil
	}

	for i := 0; i < 3; i++ {
		var out payload
		require.NoError(t, rt.Load(ctx, "k", &out, fetch))
		assert.Equal(t, "x", out.ID)
	}
	assert.Equal(t, int32(1), calls.Load())

	rt.Invalidate(ctx, "k")

	var out payload
	require.NoError(t, rt.Load(ctx, "k", &out, fetch))
	assert.Equal(t, int32(2), calls.Load())
}

func TestReadThrough_CollapsesConcurrentMisses(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache("orders"), time.Minute)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return payload{ID: "slow"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out payload
			assert.NoError(t, rt.Load(ctx, "k", &out, fetch))
			assert.Equal(t, "slow", out.ID)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestReadThrough_FetchErrorIsNotCached(t *testing.T) {
	rt := NewReadThrough(NewMemoryCache("orders"), time.Minute)
	ctx := context.Background()
	boom := errors.New("broker down")

	var out payload
	err := rt.Load(ctx, "k", &out, func(context.Context) (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	require.NoError(t, rt.Load(ctx, "k", &out, func(context.Context) (any, error) { return payload{ID: "ok"}, nil }))
	assert.Equal(t, "ok", out.ID)
}

func TestReadThrough_Store(t *testing.T) {
	c := NewMemoryCache("orders")
	rt := NewReadThrough(c, time.Minute)
	ctx := context.Background()

	rt.Store(ctx, rt.Key("order", "a"), payload{ID: "a"})

	val, err := c.Get(ctx, "orders:order:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a"}`, val)
}
