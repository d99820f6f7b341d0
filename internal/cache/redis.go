package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/redis/go-redis/v9"
)

// RedisCache shares recent frames between API replicas. The newest frame is
// kept under <ns>:frame:latest with a TTL and the history in a capped list
// under <ns>:frames.
type RedisCache struct {
	rdb      *redis.Client
	ns       string
	ttl      time.Duration
	capacity int64
}

// NewRedisCache creates a client from configuration
func NewRedisCache(cfg *config.RedisConfig, capacity int) *RedisCache {
	timeout := time.Duration(cfg.Timeout) * time.Second
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return NewRedisCacheFromClient(rdb, cfg.Namespace, time.Duration(cfg.TTL)*time.Second, capacity)
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb *redis.Client, namespace string, ttl time.Duration, capacity int) *RedisCache {
	if namespace == "" {
		namespace = "sensorhub"
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &RedisCache{rdb: rdb, ns: namespace, ttl: ttl, capacity: int64(capacity)}
}

func (c *RedisCache) latestKey() string { return c.ns + ":frame:latest" }
func (c *RedisCache) listKey() string   { return c.ns + ":frames" }

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Name implements simulator.Sink
func (c *RedisCache) Name() string {
	return "redis_cache"
}

// Publish implements simulator.Sink
func (c *RedisCache) Publish(ctx context.Context, frame *simulator.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, c.latestKey(), payload, c.ttl)
	pipe.LPush(ctx, c.listKey(), payload)
	pipe.LTrim(ctx, c.listKey(), 0, c.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Latest returns the newest frame
func (c *RedisCache) Latest(ctx context.Context) (*simulator.Frame, error) {
	payload, err := c.rdb.Get(ctx, c.latestKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeFrame(payload)
}

// Recent returns up to limit frames, newest first
func (c *RedisCache) Recent(ctx context.Context, limit int) ([]*simulator.Frame, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	items, err := c.rdb.LRange(ctx, c.listKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	frames := make([]*simulator.Frame, 0, len(items))
	for _, item := range items {
		frame, err := decodeFrame([]byte(item))
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Close closes the client
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func decodeFrame(payload []byte) (*simulator.Frame, error) {
	var frame simulator.Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return &frame, nil
}
