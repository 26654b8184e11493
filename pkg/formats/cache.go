package formats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/buyflow/buyflow/pkg/models"
)

// DefaultCacheTTL is how long a format spec stays cached before the agent is
// asked again.
const DefaultCacheTTL = 30 * time.Minute

// Cache stores format specs looked up from creative agents. The cache is
// advisory: a miss or a cache failure falls through to the directory, and
// cached data is never used for ownership or authorization decisions.
type Cache interface {
	Get(ctx context.Context, key string) (*models.FormatSpec, bool, error)
	Set(ctx context.Context, key string, spec *models.FormatSpec) error
}

// CachedRegistry wraps a Registry with a cache.
type CachedRegistry struct {
	registry Registry
	cache    Cache
	logger   *slog.Logger
}

// NewCachedRegistry creates a registry that consults the cache before the
// directory.
func NewCachedRegistry(registry Registry, cache Cache, logger *slog.Logger) *CachedRegistry {
	return &CachedRegistry{
		registry: registry,
		cache:    cache,
		logger:   logger,
	}
}

func (r *CachedRegistry) GetFormat(ctx context.Context, agentURL, formatID string) (*models.FormatSpec, error) {
	key := cacheKey(agentURL, formatID)

	spec, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WarnContext(ctx, "format cache read failed", "key", key, "error", err)
	}

	if found {
		return spec, nil
	}

	spec, err = r.registry.GetFormat(ctx, agentURL, formatID)
	if err != nil {
		return nil, err
	}

	if spec != nil {
		err = r.cache.Set(ctx, key, spec)
		if err != nil {
			r.logger.WarnContext(ctx, "format cache write failed", "key", key, "error", err)
		}
	}

	return spec, nil
}

func cacheKey(agentURL, formatID string) string {
	return fmt.Sprintf("format:%s:%s", NormalizeAgentURL(agentURL), formatID)
}

// RedisCache is a redis-backed format cache.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a redis-backed cache with the given TTL. A zero TTL
// uses DefaultCacheTTL.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.FormatSpec, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, err
	}

	var spec models.FormatSpec

	err = json.Unmarshal(data, &spec)
	if err != nil {
		return nil, false, err
	}

	return &spec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, spec *models.FormatSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// MemoryCache is an in-process format cache for tests and local development.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	spec      *models.FormatSpec
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with the given TTL. A zero TTL
// uses DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*models.FormatSpec, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}

	return entry.spec, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, spec *models.FormatSpec) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{
		spec:      spec,
		expiresAt: time.Now().Add(c.ttl),
	}

	return nil
}
