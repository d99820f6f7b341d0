package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, ttl time.Duration, capacity int) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}), "test", ttl, capacity)
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Should report empty before the first frame", func(t *testing.T) {
		c, _ := newTestRedisCache(t, 0, 3)
		require.NoError(t, c.Ping(ctx))

		_, err := c.Latest(ctx)
		assert.ErrorIs(t, err, ErrEmpty)

		recent, err := c.Recent(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})

	t.Run("Should cap the frame list at capacity", func(t *testing.T) {
		c, srv := newTestRedisCache(t, 0, 3)
		for _, f := range frames(5) {
			require.NoError(t, c.Publish(ctx, f))
		}

		items, err := srv.List("test:frames")
		require.NoError(t, err)
		assert.Len(t, items, 3)

		latest, err := c.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), latest.Sequence)

		recent, err := c.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []uint64{5, 4, 3}, sequences(recent))
	})

	t.Run("Should honour the recent limit", func(t *testing.T) {
		c, _ := newTestRedisCache(t, 0, 10)
		for _, f := range frames(4) {
			require.NoError(t, c.Publish(ctx, f))
		}

		recent, err := c.Recent(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []uint64{4, 3}, sequences(recent))
	})

	t.Run("Should expire the latest frame after its TTL", func(t *testing.T) {
		c, srv := newTestRedisCache(t, time.Minute, 3)
		require.NoError(t, c.Publish(ctx, frames(1)[0]))

		_, err := c.Latest(ctx)
		require.NoError(t, err)

		srv.FastForward(2 * time.Minute)
		_, err = c.Latest(ctx)
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("Should fail on a corrupt payload", func(t *testing.T) {
		c, srv := newTestRedisCache(t, 0, 3)
		require.NoError(t, srv.Set("test:frame:latest", "not json"))

		_, err := c.Latest(ctx)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmpty)
	})

	t.Run("Should wrap connection failures", func(t *testing.T) {
		rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
		c := NewRedisCacheFromClient(rdb, "", 0, 0)
		defer c.Close()

		err := c.Publish(ctx, frames(1)[0])
		assert.ErrorContains(t, err, "redis publish")
		assert.Error(t, c.Ping(ctx))
	})
}
