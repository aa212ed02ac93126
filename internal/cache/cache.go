package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// New creates a new cache based on configuration.
// "memory" returns an LRU cache; "redis" returns Redis, or a TwoPhaseCache
// wrapping LRU + Redis when two_phase is set; "none" disables caching.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory", "":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	case "none":
		return NopCache{}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// Digest returns the cache key digest of a document's raw text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func extractionKey(digest string) string {
	return "extract:" + digest
}

func encodeExtraction(res *domain.CoreResult) ([]byte, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction: %w", err)
	}
	return data, nil
}

func decodeExtraction(data []byte) (*domain.CoreResult, error) {
	var res domain.CoreResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode extraction: %w", err)
	}
	// JSON loses the concrete item type inside the field map.
	if f, ok := res.Fields[domain.FieldItems]; ok {
		f.Value = res.Items
		res.Fields[domain.FieldItems] = f
	}
	return &res, nil
}

// TwoPhaseCache implements the two-phase caching strategy.
// L1: Local LRU cache for fast reads
// L2: Redis shared across instances
type TwoPhaseCache struct {
	local  *LRUCache
	remote *RedisCache
	l1TTL  time.Duration
}

// NewTwoPhaseCache creates a two-phase cache with LRU + Redis.
func NewTwoPhaseCache(cfg domain.CacheConfig) (*TwoPhaseCache, error) {
	remote, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}
	return newTwoPhase(NewLRUCache(cfg.LocalMaxSize), remote, cfg.LocalTTL), nil
}

func newTwoPhase(local *LRUCache, remote *RedisCache, l1TTL time.Duration) *TwoPhaseCache {
	if l1TTL == 0 {
		l1TTL = 5 * time.Minute
	}
	return &TwoPhaseCache{local: local, remote: remote, l1TTL: l1TTL}
}

// Get retrieves from L1 first, then L2. Populates L1 on L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		return val, nil
	}

	val, err = c.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		_ = c.local.Set(ctx, key, val, c.l1TTL)
	}

	return val, nil
}

// Set writes to both L1 and L2. L1 keeps the shorter of ttl and its own TTL.
func (c *TwoPhaseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.local.Set(ctx, key, value, min(ttl, c.l1TTL)); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes from both L1 and L2.
func (c *TwoPhaseCache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.remote.Delete(ctx, key)
}

// GetExtraction retrieves a cached extraction through both tiers.
func (c *TwoPhaseCache) GetExtraction(ctx context.Context, digest string) (*domain.CoreResult, error) {
	data, err := c.Get(ctx, extractionKey(digest))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeExtraction(data)
}

// SetExtraction caches an extraction in both tiers.
func (c *TwoPhaseCache) SetExtraction(ctx context.Context, digest string, res *domain.CoreResult, ttl time.Duration) error {
	data, err := encodeExtraction(res)
	if err != nil {
		return err
	}
	return c.Set(ctx, extractionKey(digest), data, ttl)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}

// Stats returns L1 cache statistics.
func (c *TwoPhaseCache) Stats() (size int, capacity int) {
	return c.local.Stats()
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error)                       { return nil, nil }
func (NopCache) Set(context.Context, string, []byte, time.Duration) error          { return nil }
func (NopCache) Delete(context.Context, string) error                              { return nil }
func (NopCache) GetExtraction(context.Context, string) (*domain.CoreResult, error) { return nil, nil }
func (NopCache) SetExtraction(context.Context, string, *domain.CoreResult, time.Duration) error {
	return nil
}
func (NopCache) Ping(context.Context) error { return nil }
func (NopCache) Close() error               { return nil }
