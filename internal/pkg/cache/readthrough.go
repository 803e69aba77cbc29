package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThrough is a cache-aside loader. Concurrent misses for the same key
// share one call to the loader.
type ReadThrough struct {
	cache Cache
	ttl   time.Duration
	group singleflight.Group
}

func NewReadThrough(c Cache, ttl time.Duration) *ReadThrough {
	return &ReadThrough{cache: c, ttl: ttl}
}

// Load decodes the cached JSON value for key into out, or calls fetch, stores
// its result and decodes that. Cache errors are logged and fall back to fetch.
func (rt *ReadThrough) Load(ctx context.Context, key string, out any, fetch func(ctx context.Context) (any, error)) error {
	if hit, err := rt.lookup(ctx, key, out); err == nil && hit {
		return nil
	}

	raw, err, _ := rt.group.Do(key, func() (interface{}, error) {
		if cached, err := rt.cache.Get(ctx, key); err == nil && cached != "" {
			return []byte(cached), nil
		}
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("cache: marshal %q: %w", key, err)
		}
		if err := rt.cache.Set(ctx, key, b, rt.ttl); err != nil {
			slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
		return b, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.([]byte), out); err != nil {
		return fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return nil
}

// Store writes v under key, logging instead of failing.
func (rt *ReadThrough) Store(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache marshal failed", "key", key, "error", err)
		return
	}
	if err := rt.cache.Set(ctx, key, b, rt.ttl); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes keys, logging instead of failing.
func (rt *ReadThrough) Invalidate(ctx context.Context, keys ...string) {
	if err := rt.cache.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}

func (rt *ReadThrough) Key(operation, key string) string {
	return rt.cache.GenerateKey(operation, key)
}

func (rt *ReadThrough) lookup(ctx context.Context, key string, out any) (bool, error) {
	cached, err := rt.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return false, err
	}
	if cached == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(cached), out); err != nil {
		slog.WarnContext(ctx, "cache entry undecodable, refetching", "key", key, "error", err)
		return false, err
	}
	return true, nil
}
