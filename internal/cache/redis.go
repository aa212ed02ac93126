package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Keys are namespaced so a shared Redis can host other applications.
const redisNamespace = "tradescan:"

// RedisCache shares extraction results between every API and worker
// instance pointed at the same Redis.
type RedisCache struct {
	rdb *redis.Client
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedisCache connects to addr, which is either host:port or a
// redis:// URL. password and db apply only to the host:port form.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	opts, err := redisOptions(addr, password, db)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}
	return &RedisCache{rdb: rdb}, nil
}

func redisOptions(addr, password string, db int) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return &redis.Options{Addr: addr, Password: password, DB: db}, nil
}

// Get returns nil, nil when key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, redisNamespace+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

// Set stores value; a zero ttl keeps it until evicted by Redis.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, redisNamespace+key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, redisNamespace+key).Err()
}

// GetExtraction returns the shared extract_core result for digest.
func (c *RedisCache) GetExtraction(ctx context.Context, digest string) (*domain.CoreResult, error) {
	data, err := c.Get(ctx, extractionKey(digest))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeExtraction(data)
}

func (c *RedisCache) SetExtraction(ctx context.Context, digest string, res *domain.CoreResult, ttl time.Duration) error {
	data, err := encodeExtraction(res)
	if err != nil {
		return err
	}
	return c.Set(ctx, extractionKey(digest), data, ttl)
}

func (c *RedisCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *RedisCache) Close() error { return c.rdb.Close() }
