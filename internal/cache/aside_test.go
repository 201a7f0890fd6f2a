package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideLoadsAndCaches(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	loads := 0
	load := func(dest *cachedUser) func() error {
		return func() error {
			loads++
			*dest = cachedUser{ID: 7, Email: "cached@example.com"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, "user:7", &first, time.Minute, load(&first)))
	assert.Equal(t, 1, loads)
	assert.Equal(t, "cached@example.com", first.Email)
	assert.True(t, mr.Exists("user:7"))

	// second read is served from the cache
	var second cachedUser
	require.NoError(t, Aside(ctx, "user:7", &second, time.Minute, load(&second)))
	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)

	// after expiry the loader runs again
	mr.FastForward(2 * time.Minute)
	var third cachedUser
	require.NoError(t, Aside(ctx, "user:7", &third, time.Minute, load(&third)))
	assert.Equal(t, 2, loads)
}

func TestAsideCorruptEntryIsDropped(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:9", "{not json"))

	var got cachedUser
	err := Aside(ctx, "user:9", &got, time.Minute, func() error {
		got = cachedUser{ID: 9}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 9, got.ID)

	// the corrupt entry was replaced with the fresh value
	raw, err := mr.Get("user:9")
	require.NoError(t, err)
	assert.Contains(t, raw, `"id":9`)
}

func TestAsideLoadErrorNotCached(t *testing.T) {
	mr := setupMiniredis(t)

	var got cachedUser
	wantErr := errors.New("db down")
	err := Aside(context.Background(), "user:1", &got, time.Minute, func() error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, mr.Exists("user:1"))
}

func TestAsideNilClientCallsLoad(t *testing.T) {
	SetClient(nil)

	var got cachedUser
	err := Aside(context.Background(), "user:2", &got, time.Minute, func() error {
		got = cachedUser{ID: 2}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ID)
}

func TestInvalidateHelpers(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(UserKey(3), "{}"))
	require.NoError(t, mr.Set(TodaySummaryKey(3, "2026-08-30"), "{}"))

	InvalidateUser(ctx, 3)
	InvalidateSummary(ctx, 3, "2026-08-30")

	assert.False(t, mr.Exists(UserKey(3)))
	assert.False(t, mr.Exists(TodaySummaryKey(3, "2026-08-30")))
}
