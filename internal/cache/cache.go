package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sampark/sampark/internal/config"
)

// keyScanner lists keys by pattern. Redis stores share one keyspace, so clearing
// a prefixed cache deletes the matching keys instead of flushing the instance.
type keyScanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

const scanBatchSize = 100

// PrefixedCache wraps a cache.Cache, adds a prefix to all keys and stores values as JSON.
type PrefixedCache[T any] struct {
	cache     *cache.Cache[any]
	cacheType config.CacheType
	prefix    string
	ttl       time.Duration
	keys      keyScanner
}

// NewPrefixedCache creates a new prefixed cache wrapper. A positive ttl is applied to every Set.
func NewPrefixedCache[T any](c *cache.Cache[any], cacheType config.CacheType, prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:     c,
		cacheType: cacheType,
		prefix:    prefix,
		ttl:       ttl,
	}
}

func (p *PrefixedCache[T]) key(key any) string {
	return p.prefix + fmt.Sprintf("%v", key)
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key any) (T, error) {
	var result T
	value, err := p.cache.Get(ctx, p.key(key))
	if err != nil {
		return result, err
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return result, fmt.Errorf("unexpected cache value type %T", value)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key any, object T, options ...store.Option) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	if p.ttl > 0 {
		options = append([]store.Option{store.WithExpiration(p.ttl)}, options...)
	}
	return p.cache.Set(ctx, p.key(key), data, options...)
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key any) error {
	return p.cache.Delete(ctx, p.key(key))
}

// Clear removes all values of this cache. Stores with a key scanner only lose
// the keys carrying the prefix.
func (p *PrefixedCache[T]) Clear(ctx context.Context) error {
	if p.keys == nil {
		return p.cache.Clear(ctx)
	}

	var cursor uint64
	for {
		keys, next, err := p.keys.Scan(ctx, cursor, p.prefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan %q keys: %w", p.prefix, err)
		}
		for _, k := range keys {
			if err := p.cache.Delete(ctx, k); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// GetType returns the configured cache type.
func (p *PrefixedCache[T]) GetType() config.CacheType {
	return p.cacheType
}

// GetStats returns the cache statistics.
func (p *PrefixedCache[T]) GetStats() *codec.Stats {
	return p.cache.GetCodec().GetStats()
}

func newMemoryCache(ttl time.Duration) *cache.Cache[any] {
	expiration := gocache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	gocacheClient := gocache.New(expiration, 10*time.Minute)
	return cache.New[any](go_store.NewGoCache(gocacheClient))
}

func newRedisCache(cfg *config.CacheConfig) (*cache.Cache[any], *redis.Client) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// Plain host:port addresses are accepted as well.
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	client := redis.NewClient(opts)
	return cache.New[any](redis_store.NewRedis(client)), client
}

// newCacheInstanceByType returns the store for cfg and, for redis, the scanner used by Clear.
func newCacheInstanceByType(cfg *config.CacheConfig) (*cache.Cache[any], keyScanner, error) {
	switch cfg.Type {
	case config.CacheTypeRedis:
		c, client := newRedisCache(cfg)
		return c, client, nil
	case config.CacheTypeMemory, "":
		return newMemoryCache(cfg.TTL), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
