package cache

import (
	"context"
	"time"
)

// Aside implements the cache-aside pattern: read dest from the cache, or run
// load to fill it and store the result. With no Redis client the loader runs
// directly.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}
