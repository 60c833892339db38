package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis server. Keys are namespaced
// under a fixed prefix so that FLUSH-free clearing is possible with [RedisCache.Clear].
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr      string // host:port
	Password  string
	DB        int
	Namespace string // key prefix, defaults to "arteria:"
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}
	return connectRedis(ctx, &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}, opts.Namespace)
}

// NewRedisCacheFromURL connects using a redis:// or rediss:// URL. Every
// option the URL carries (username, TLS, timeouts) reaches the client.
func NewRedisCacheFromURL(ctx context.Context, url string) (*RedisCache, error) {
	o, err := parseRedisURL(url)
	if err != nil {
		return nil, err
	}
	return connectRedis(ctx, o, "")
}

func parseRedisURL(url string) (*redis.Options, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return o, nil
}

func connectRedis(ctx context.Context, o *redis.Options, namespace string) (*RedisCache, error) {
	if namespace == "" {
		namespace = "arteria:"
	}
	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, Retryable(fmt.Errorf("%w: ping %s: %w", ErrUnavailable, o.Addr, err))
	}
	return &RedisCache{client: client, namespace: namespace}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.namespace+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis. A zero ttl keeps the key until it is deleted.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.namespace+key, data, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.namespace+key).Err()
}

// Clear deletes every key under the cache namespace.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var n int
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 256).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
