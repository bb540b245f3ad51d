package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"todo-api/internal/config"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, time.Minute), mr
}

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	c.SetList(ctx, Version{}, []byte("[]"))
	if _, _, ok := c.GetList(ctx); ok {
		t.Fatal("nil cache should miss")
	}
	c.Invalidate(ctx, 1)
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("nil Ping: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestNewDisabledWithoutURL(t *testing.T) {
	c, err := New(context.Background(), config.Default())
	if err != nil || c != nil {
		t.Fatalf("New without REDIS_URL = %v, %v; want nil, nil", c, err)
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.RedisURL = "redis://" + mr.Addr() + "/0"
	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestListAndItemRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, listVer, ok := c.GetList(ctx)
	if ok {
		t.Fatal("expected miss on empty cache")
	}
	_, ver1, _ := c.GetItem(ctx, 1)
	_, ver2, _ := c.GetItem(ctx, 2)
	c.SetList(ctx, listVer, []byte(`[{"ToDoId":1}]`))
	c.SetItem(ctx, 1, ver1, []byte(`{"ToDoId":1}`))
	c.SetItem(ctx, 2, ver2, []byte(`{"ToDoId":2}`))

	if b, _, ok := c.GetList(ctx); !ok || string(b) != `[{"ToDoId":1}]` {
		t.Fatalf("GetList = %q, %v", b, ok)
	}
	if b, _, ok := c.GetItem(ctx, 1); !ok || string(b) != `{"ToDoId":1}` {
		t.Fatalf("GetItem = %q, %v", b, ok)
	}
	if ttl := mr.TTL(ItemKey(1)); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	c.Invalidate(ctx, 1)
	if _, _, ok := c.GetList(ctx); ok {
		t.Fatal("list should be invalidated")
	}
	if _, _, ok := c.GetItem(ctx, 1); ok {
		t.Fatal("item 1 should be invalidated")
	}
	if _, _, ok := c.GetItem(ctx, 2); !ok {
		t.Fatal("item 2 should survive")
	}
}

func TestSetAfterInvalidateIsDropped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, itemVer, _ := c.GetItem(ctx, 1)
	_, listVer, _ := c.GetList(ctx)
	c.Invalidate(ctx, 1)
	c.SetItem(ctx, 1, itemVer, []byte(`{"Action":"old"}`))
	c.SetList(ctx, listVer, []byte(`[{"Action":"old"}]`))
	if mr.Exists(ItemKey(1)) || mr.Exists(listKey) {
		t.Fatalf("stale set landed, keys = %v", mr.Keys())
	}

	_, itemVer, _ = c.GetItem(ctx, 1)
	c.SetItem(ctx, 1, itemVer, []byte(`{"Action":"new"}`))
	if b, _, ok := c.GetItem(ctx, 1); !ok || string(b) != `{"Action":"new"}` {
		t.Fatalf("GetItem = %q, %v", b, ok)
	}
	if ttl := mr.TTL(genKey(ItemKey(1))); ttl != time.Minute+genGrace {
		t.Fatalf("generation ttl = %v", ttl)
	}
}

func TestVersionOfOtherItemSurvivesInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ver, _ := c.GetItem(ctx, 2)
	c.Invalidate(ctx, 1)
	c.SetItem(ctx, 2, ver, []byte(`{"ToDoId":2}`))
	if _, _, ok := c.GetItem(ctx, 2); !ok {
		t.Fatal("write to item 1 should not block caching item 2")
	}
}

func TestZeroVersionNeverSets(t *testing.T) {
	c, mr := newTestCache(t)
	c.SetItem(context.Background(), 1, Version{}, []byte(`{}`))
	if mr.Exists(ItemKey(1)) {
		t.Fatal("set without an observed version should be dropped")
	}
}

func TestExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	_, ver, _ := c.GetList(ctx)
	c.SetList(ctx, ver, []byte("[]"))
	mr.FastForward(2 * time.Minute)
	if _, _, ok := c.GetList(ctx); ok {
		t.Fatal("entry should have expired")
	}
}

func TestRedisDownDegradesToMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	_, ver, _ := c.GetList(ctx)
	mr.Close()
	c.SetList(ctx, ver, []byte("[]"))
	if _, _, ok := c.GetList(ctx); ok {
		t.Fatal("expected miss with redis down")
	}
}
