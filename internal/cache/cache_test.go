package cache

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(100)
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		if err := cache.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		val, err := cache.Get(ctx, "key1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(val) != "value1" {
			t.Errorf("expected 'value1', got '%s'", string(val))
		}
	})

	t.Run("GetMiss", func(t *testing.T) {
		val, err := cache.Get(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if val != nil {
			t.Errorf("expected nil for cache miss, got: %v", val)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = cache.Set(ctx, "key2", []byte("value2"), time.Minute)

		if err := cache.Delete(ctx, "key2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		val, _ := cache.Get(ctx, "key2")
		if val != nil {
			t.Error("expected nil after delete")
		}
	})

	t.Run("TTLExpiration", func(t *testing.T) {
		_ = cache.Set(ctx, "expiring", []byte("temp"), 10*time.Millisecond)

		val, _ := cache.Get(ctx, "expiring")
		if val == nil {
			t.Error("expected value before expiration")
		}

		time.Sleep(20 * time.Millisecond)

		val, _ = cache.Get(ctx, "expiring")
		if val != nil {
			t.Error("expected nil after expiration")
		}
	})

	t.Run("LRUEviction", func(t *testing.T) {
		small := NewLRUCache(3)

		_ = small.Set(ctx, "a", []byte("1"), time.Minute)
		_ = small.Set(ctx, "b", []byte("2"), time.Minute)
		_ = small.Set(ctx, "c", []byte("3"), time.Minute)

		// Touch 'a' so 'b' becomes the oldest
		_, _ = small.Get(ctx, "a")
		_ = small.Set(ctx, "d", []byte("4"), time.Minute)

		if val, _ := small.Get(ctx, "b"); val != nil {
			t.Error("expected 'b' to be evicted")
		}
		if val, _ := small.Get(ctx, "a"); val == nil {
			t.Error("expected 'a' to still exist")
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats := NewLRUCache(50)
		_ = stats.Set(ctx, "k1", []byte("v1"), time.Minute)
		_ = stats.Set(ctx, "k2", []byte("v2"), time.Minute)
		_, _ = stats.Get(ctx, "k1")
		_, _ = stats.Get(ctx, "missing")

		size, capacity := stats.Stats()
		if size != 2 || capacity != 50 {
			t.Errorf("expected 2/50, got %d/%d", size, capacity)
		}
		hits, misses := stats.HitRatio()
		if hits != 1 || misses != 1 {
			t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
		}
	})

	t.Run("NoExpiry", func(t *testing.T) {
		c := NewLRUCache(10)
		_ = c.Set(ctx, "pinned", []byte("v"), 0)
		time.Sleep(5 * time.Millisecond)
		if val, _ := c.Get(ctx, "pinned"); string(val) != "v" {
			t.Errorf("expected entry without ttl to persist, got %q", val)
		}
	})

	t.Run("Close", func(t *testing.T) {
		c := NewLRUCache(10)
		_ = c.Set(ctx, "k", []byte("v"), time.Minute)

		if err := c.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
		if val, _ := c.Get(ctx, "k"); val != nil {
			t.Error("expected cache to be cleared after close")
		}
	})
}

func TestExtractionCache(t *testing.T) {
	cache := NewLRUCache(10)
	ctx := context.Background()

	items := []domain.LineItem{{Description: "Cotton shirts", TariffCode: "620520", Quantity: "100", Amount: "1500.00", Currency: "USD"}}
	res := &domain.CoreResult{
		Fields: map[string]domain.FieldValue{
			domain.FieldInvoiceNo: {Value: "INV-2024-001", Validated: true, Confidence: 0.95},
			domain.FieldItems:     {Value: items, Validated: true, Confidence: 0.95},
		},
		Items:             items,
		Summary:           "Invoice INV-2024-001",
		OverallConfidence: 0.95,
	}

	digest := Digest("invoice text")
	if err := cache.SetExtraction(ctx, digest, res, time.Minute); err != nil {
		t.Fatalf("SetExtraction failed: %v", err)
	}

	got, err := cache.GetExtraction(ctx, digest)
	if err != nil {
		t.Fatalf("GetExtraction failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected cached extraction")
	}
	if got.Fields[domain.FieldInvoiceNo].Text() != "INV-2024-001" {
		t.Errorf("unexpected invoice field: %+v", got.Fields[domain.FieldInvoiceNo])
	}
	restored, ok := got.Fields[domain.FieldItems].Value.([]domain.LineItem)
	if !ok || len(restored) != 1 || restored[0].TariffCode != "620520" {
		t.Errorf("items field not restored: %#v", got.Fields[domain.FieldItems].Value)
	}

	miss, err := cache.GetExtraction(ctx, Digest("other text"))
	if err != nil || miss != nil {
		t.Errorf("expected clean miss, got %v, %v", miss, err)
	}
}

func TestDigest(t *testing.T) {
	if Digest("a") != Digest("a") {
		t.Error("digest must be stable")
	}
	if Digest("a") == Digest("b") {
		t.Error("different text must produce different digests")
	}
	if len(Digest("")) != 64 {
		t.Errorf("expected hex sha-256 digest, got %q", Digest(""))
	}
}

func TestNewCache(t *testing.T) {
	t.Run("MemoryType", func(t *testing.T) {
		cache, err := New(domain.CacheConfig{Type: "memory", LocalMaxSize: 100})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer cache.Close()

		if _, ok := cache.(*LRUCache); !ok {
			t.Errorf("expected *LRUCache, got %T", cache)
		}
	})

	t.Run("NoneType", func(t *testing.T) {
		cache, err := New(domain.CacheConfig{Type: "none"})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		ctx := context.Background()
		_ = cache.Set(ctx, "k", []byte("v"), time.Minute)
		if val, _ := cache.Get(ctx, "k"); val != nil {
			t.Error("nop cache must not store values")
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		if _, err := New(domain.CacheConfig{Type: "memcached"}); err == nil {
			t.Error("expected error for unsupported cache type")
		}
	})
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("", "pw", 2)
	if err != nil {
		t.Fatalf("redisOptions failed: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Errorf("unexpected defaults: %+v", opts)
	}

	opts, err = redisOptions("redis://:secret@cache.internal:6380/3", "ignored", 0)
	if err != nil {
		t.Fatalf("redisOptions failed: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Errorf("url not applied: %+v", opts)
	}

	if _, err := redisOptions("redis://host:6379/notanumber", "", 0); err == nil {
		t.Error("expected error for bad redis url")
	}
}
