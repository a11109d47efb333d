package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "collector:seen:"

// Deduper remembers which article titles have already been collected.
type Deduper interface {
	// Remember records the key and reports whether it was new.
	Remember(ctx context.Context, key string) (bool, error)
}

// RedisDeduper tracks seen titles as SETNX keys with a TTL, so the
// screener and collector deployments share one memory across restarts.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed deduper.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// Remember records the key and reports whether it was new.
func (d *RedisDeduper) Remember(ctx context.Context, key string) (bool, error) {
	created, err := d.client.SetNX(ctx, dedupeKeyPrefix+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx: %w", err)
	}
	return created, nil
}

// MemoryDeduper is the in-process fallback used when Redis is not
// configured. Expired entries are evicted lazily on re-check.
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
}

// NewMemoryDeduper creates an in-process deduper.
func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
}

// Remember records the key and reports whether it was new.
func (d *MemoryDeduper) Remember(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if expiresAt, ok := d.seen[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}
