package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-api/internal/config"
	"todo-api/pkg/logger"
)

const listKey = "todos:all"

// Generation keys outlive the entries they guard so a read that spans an
// expiry still sees the bump.
const genGrace = time.Minute

// setIfGen sets KEYS[1] only while KEYS[2] still holds the generation ARGV[1].
var setIfGen = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or ''
if gen ~= ARGV[1] then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func genKey(key string) string {
	return "gen:" + key
}

// ItemKey returns the cache key for a single todo view.
func ItemKey(id int64) string {
	return fmt.Sprintf("todo:%d", id)
}

// Cache stores serialized todo views in Redis. A nil *Cache is a valid,
// always-missing cache, so callers need no enabled checks.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to cfg.RedisURL. It returns nil when caching is disabled.
func New(ctx context.Context, cfg *config.Config) (*Cache, error) {
	if !cfg.CacheEnabled() {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.RedisPoolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	return NewWithClient(client, time.Duration(cfg.CacheTTL)*time.Second), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version is the write generation of a key, observed on a cache miss before
// the store is read. A Set carrying a Version that a later Invalidate has
// moved past is dropped, so a slow read cannot cache a pre-write view.
type Version struct {
	gen string
	ok  bool
}

// String identifies the generation, for keying coalesced reads.
func (v Version) String() string { return v.gen }

// GetList returns the cached JSON list payload. On a miss it returns the
// Version to pass to SetList.
func (c *Cache) GetList(ctx context.Context) ([]byte, Version, bool) {
	return c.get(ctx, listKey)
}

// SetList caches the JSON list payload unless the list was invalidated since v.
func (c *Cache) SetList(ctx context.Context, v Version, b []byte) {
	c.set(ctx, listKey, v, b)
}

// GetItem returns the cached JSON view for id, or the Version to pass to SetItem.
func (c *Cache) GetItem(ctx context.Context, id int64) ([]byte, Version, bool) {
	return c.get(ctx, ItemKey(id))
}

// SetItem caches the JSON view for id unless it was invalidated since v.
func (c *Cache) SetItem(ctx context.Context, id int64, v Version, b []byte) {
	c.set(ctx, ItemKey(id), v, b)
}

// Invalidate drops the list payload and the view for id so the next read goes
// to the store, and bumps both generations so in-flight reads do not refill them.
func (c *Cache) Invalidate(ctx context.Context, id int64) {
	if c == nil {
		return
	}
	item := ItemKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range []string{listKey, item} {
			pipe.Incr(ctx, genKey(key))
			if c.ttl > 0 {
				pipe.Expire(ctx, genKey(key), c.ttl+genGrace)
			}
		}
		pipe.Del(ctx, listKey, item)
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "Redis invalidate failed", "error", err, "todo_id", id)
	}
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, Version, bool) {
	if c == nil {
		return nil, Version{}, false
	}
	vals, err := c.client.MGet(ctx, key, genKey(key)).Result()
	if err != nil {
		logger.Debug(ctx, "Redis get failed", "error", err, "key", key)
		return nil, Version{}, false
	}
	gen, _ := vals[1].(string)
	if b, ok := vals[0].(string); ok {
		return []byte(b), Version{gen: gen, ok: true}, true
	}
	return nil, Version{gen: gen, ok: true}, false
}

func (c *Cache) set(ctx context.Context, key string, v Version, b []byte) {
	if c == nil || !v.ok {
		return
	}
	err := setIfGen.Run(ctx, c.client, []string{key, genKey(key)}, v.gen, b, c.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Debug(ctx, "Redis set failed", "error", err, "key", key)
	}
}
