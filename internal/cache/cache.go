// Package cache is a Redis read-through cache for list query results,
// invalidated per resource on writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ListCache caches serialized list results. A nil *ListCache, or one built
// without a client, is a pass-through.
type ListCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group
	log    *zap.Logger
	stats  Stats
}

type Stats struct {
	Hits   atomic.Uint64
	Misses atomic.Uint64
	Errors atomic.Uint64
}

func New(client *redis.Client, prefix string, ttl time.Duration, log *zap.Logger) *ListCache {
	return &ListCache{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *ListCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *ListCache) key(resource string, gen int64, variant string) string {
	return fmt.Sprintf("%s%s:%d:%s", c.prefix, resource, gen, variant)
}

func (c *ListCache) genKey(resource string) string {
	return c.prefix + "gen:" + resource
}

// generation returns the current generation of resource. Invalidate bumps
// it, so entries stored by loads that started earlier are never read again.
func (c *ListCache) generation(ctx context.Context, resource string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(resource)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetOrLoad returns the cached value for (resource, variant) or calls load,
// caching its result. Concurrent misses on one key share a single load, which
// runs detached from any one caller's cancellation. Redis failures degrade to
// calling load directly.
func GetOrLoad[T any](ctx context.Context, c *ListCache, resource, variant string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !c.enabled() {
		return load(ctx)
	}

	gen, err := c.generation(ctx, resource)
	if err != nil {
		c.stats.Errors.Add(1)
		c.log.Warn("cache generation lookup failed", zap.String("resource", resource), zap.Error(err))
		return load(ctx)
	}

	key := c.key(resource, gen, variant)
	var out T
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &out); err == nil {
			c.stats.Hits.Add(1)
			return out, nil
		}
		c.stats.Errors.Add(1)
	case errors.Is(err, redis.Nil):
		c.stats.Misses.Add(1)
	default:
		c.stats.Errors.Add(1)
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		val, err := load(shared)
		if err != nil {
			return val, err
		}
		c.store(shared, key, val)
		return val, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *ListCache) store(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		c.stats.Errors.Add(1)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.stats.Errors.Add(1)
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate moves resource to a new generation and drops the entries of
// earlier ones.
func (c *ListCache) Invalidate(ctx context.Context, resource string) {
	if !c.enabled() {
		return
	}

	if err := c.client.Incr(ctx, c.genKey(resource)).Err(); err != nil {
		c.stats.Errors.Add(1)
		c.log.Error("cache generation bump failed", zap.String("resource", resource), zap.Error(err))
	}

	pattern := c.prefix + resource + ":*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.stats.Errors.Add(1)
			c.log.Warn("cache scan failed", zap.String("pattern", pattern), zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.stats.Errors.Add(1)
				c.log.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Variant renders the parameters of a list query as a cache key suffix.
func Variant(parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%x", data)
}

// Ping reports Redis reachability; a disabled cache is always healthy.
func (c *ListCache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *ListCache) Stats() (hits, misses, errs uint64) {
	if c == nil {
		return 0, 0, 0
	}
	return c.stats.Hits.Load(), c.stats.Misses.Load(), c.stats.Errors.Load()
}

func (c *ListCache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.client.Close()
}

var (
	hitsDesc   = prometheus.NewDesc("list_cache_hits_total", "List cache hits.", nil, nil)
	missesDesc = prometheus.NewDesc("list_cache_misses_total", "List cache misses.", nil, nil)
	errorsDesc = prometheus.NewDesc("list_cache_errors_total", "Redis errors seen by the list cache.", nil, nil)
)

type collector struct{ c *ListCache }

// Collector exposes the cache counters to Prometheus.
func (c *ListCache) Collector() prometheus.Collector { return collector{c: c} }

func (col collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- hitsDesc
	ch <- missesDesc
	ch <- errorsDesc
}

func (col collector) Collect(ch chan<- prometheus.Metric) {
	hits, misses, errs := col.c.Stats()
	ch <- prometheus.MustNewConstMetric(hitsDesc, prometheus.CounterValue, float64(hits))
	ch <- prometheus.MustNewConstMetric(missesDesc, prometheus.CounterValue, float64(misses))
	ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(errs))
}
