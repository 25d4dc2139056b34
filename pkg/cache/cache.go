// Package cache provides the time-bounded stores repositories use to avoid
// re-reading slow-changing tables on every request.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache: miss")

// Store is a TTL key/value store. Values are JSON encoded so any backend
// can hold them.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// GetOrLoad returns the cached value for key or calls load and caches its result.
// Cache failures are not fatal: the loader result is returned regardless.
func GetOrLoad[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if store != nil {
		if err := store.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if store != nil {
		_ = store.Set(ctx, key, value, ttl)
	}
	return value, nil
}
