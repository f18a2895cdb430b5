package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Key patterns
const (
	KeyLoginAttempts = "ratelimit:login:%s" // ratelimit:login:{identity hash}
)

// NewClient parses redisURL, connects and pings the server
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// small pool: only the login limiter talks to Redis
	opts.PoolSize = 10
	opts.MinIdleConns = 1
	opts.MaxRetries = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Incr increments a counter
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	v, err := c.rdb.Incr(ctx, key).Result()
	c.logOp("redis_incr", key, time.Since(start), err)
	return v, err
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Expire(ctx, key, ttl).Err()
	c.logOp("redis_expire", key, time.Since(start), err)
	return err
}

// TTL returns the remaining time to live of key. A key without expiry
// reports a negative duration.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	start := time.Now()
	d, err := c.rdb.PTTL(ctx, key).Result()
	c.logOp("redis_pttl", key, time.Since(start), err)
	return d, err
}

// IncrWindow counts one hit in a fixed window keyed by key. The window
// starts with the first hit and the key expires when it ends; later hits
// never extend it. Returns the hit count and the time left in the window.
func (c *Client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := c.Incr(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s: %w", prefixForLog(key), err)
	}

	if count == 1 {
		if err := c.Expire(ctx, key, window); err != nil {
			return count, window, fmt.Errorf("set window expiry: %w", err)
		}
		return count, window, nil
	}

	ttl, err := c.TTL(ctx, key)
	if err != nil {
		return count, window, fmt.Errorf("read window ttl: %w", err)
	}
	if ttl < 0 {
		// expiry was lost (crash between INCR and EXPIRE); restart the window
		if err := c.Expire(ctx, key, window); err != nil {
			return count, window, fmt.Errorf("repair window expiry: %w", err)
		}
		ttl = window
	}
	return count, ttl, nil
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.logOp("redis_ping", "", time.Since(start), err)
	return err
}

func (c *Client) logOp(op, key string, dur time.Duration, err error) {
	if err != nil {
		c.log.Info(op,
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
		return
	}
	c.log.Debug(op,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Duration("duration", dur))
}

// prefixForLog returns a safe prefix of a key to avoid logging PII
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
