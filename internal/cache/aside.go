package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"freshplate/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: return the cached value for key
// if present, otherwise call load, cache its result, and return it. A nil
// Redis client degrades to calling load directly.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "get")
	data, err := client.Get(ctx, key).Bytes()
	span.End()
	if err == nil {
		if unmarshalErr := json.Unmarshal(data, dest); unmarshalErr == nil {
			observability.CacheHits.WithLabelValues(keyClass(key)).Inc()
			return nil
		}
		// Corrupt entry, drop it and fall through to load.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis unavailable, serve from source.
		return load()
	}

	observability.CacheMisses.WithLabelValues(keyClass(key)).Inc()

	if err := load(); err != nil {
		return err
	}

	if data, err := json.Marshal(dest); err == nil {
		client.Set(ctx, key, data, ttl)
	}
	return nil
}

func keyClass(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
