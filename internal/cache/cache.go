// Package cache is the read-through cache for projected events, ticket
// lists, listings and the popular ranking. It is advisory: when Redis is
// absent or failing, reads miss and writes are dropped, and callers fall
// through to the catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/event-ticketing-admin/internal/metrics"
)

const scanCount = 200

// Cache wraps a Redis client. A nil client puts it in pass-through mode.
type Cache struct {
	rdb *redis.Client
	ttl TTLs
	log *zap.Logger

	group singleflight.Group
	// epoch advances on every invalidation; a load that started in an
	// older epoch must not leave its result in the store.
	epoch atomic.Uint64
}

// New builds a cache. rdb may be nil.
func New(rdb *redis.Client, ttl TTLs, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

// Enabled reports whether a backing store is configured.
func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// TTLs returns the configured expirations.
func (c *Cache) TTLs() TTLs { return c.ttl }

// Get decodes the value under key into dst. It reports false on a miss,
// on any store error and in pass-through mode.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		return false
	}
	if err != nil {
		c.degraded("get", key, err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// an entry we cannot decode is dropped rather than served
		c.log.Warn("cache entry undecodable, dropping", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, key)
		metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		return false
	}
	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return true
}

// Set stores v under key for ttl. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error("cache value not encodable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		c.degraded("set", key, err)
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
}

// Invalidate removes exact keys and, for patterns ending in "*", every
// key with that prefix. It always advances the epoch, even without a
// store, so in-flight loads stop populating.
func (c *Cache) Invalidate(ctx context.Context, patterns ...string) {
	c.epoch.Add(1)
	if !c.Enabled() {
		return
	}
	var exact []string
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			c.deletePrefix(ctx, prefix)
			continue
		}
		exact = append(exact, p)
	}
	if len(exact) > 0 {
		if err := c.rdb.Del(ctx, exact...).Err(); err != nil {
			c.degraded("invalidate", strings.Join(exact, ","), err)
			return
		}
	}
	metrics.CacheOpsTotal.WithLabelValues("invalidate", "ok").Inc()
}

func (c *Cache) deletePrefix(ctx context.Context, prefix string) {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			c.degraded("scan", prefix, err)
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.degraded("invalidate", prefix, err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

// InvalidateEvent drops everything that can reflect the event: its full
// projection, its ticket list, and every listing and ranking.
func (c *Cache) InvalidateEvent(ctx context.Context, eventID string) {
	c.Invalidate(ctx,
		FullKey(eventID),
		TicketsKey(eventID),
		ListPrefix+"*",
		PopularPrefix+"*",
	)
	c.log.Debug("event cache invalidated", zap.String("event_id", eventID))
}

// InvalidateAll drops every event family. Used when the affected event is
// unknown.
func (c *Cache) InvalidateAll(ctx context.Context) {
	patterns := make([]string, 0, len(families))
	for _, f := range families {
		patterns = append(patterns, f+"*")
	}
	c.Invalidate(ctx, patterns...)
}

// Stats counts keys per family.
type Stats struct {
	Enabled  bool           `json:"enabled"`
	Families map[string]int `json:"families"`
}

func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Enabled: c.Enabled(), Families: map[string]int{}}
	if !c.Enabled() {
		return st, nil
	}
	for _, f := range families {
		var (
			cursor uint64
			n      int
		)
		for {
			keys, next, err := c.rdb.Scan(ctx, cursor, f+"*", scanCount).Result()
			if err != nil {
				return st, err
			}
			n += len(keys)
			if next == 0 {
				break
			}
			cursor = next
		}
		st.Families[strings.TrimSuffix(f, ":")] = n
	}
	return st, nil
}

func (c *Cache) degraded(op, key string, err error) {
	metrics.CacheOpsTotal.WithLabelValues(op, "error").Inc()
	c.log.Warn("cache unavailable, passing through", zap.String("op", op), zap.String("key", key), zap.Error(err))
}

// Fetch returns the cached value under key, or runs load, stores its
// result for ttl and returns it. Concurrent misses on the same key share
// one load. A result is never left in the store if an invalidation ran
// while it was loading.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var out T
	if c.Get(ctx, key, &out) {
		return out, nil
	}
	epoch := c.epoch.Load()
	v, err, _ := c.group.Do(strconv.FormatUint(epoch, 10)+"|"+key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() == epoch {
			c.Set(ctx, key, val, ttl)
			// an invalidation may have landed between the check and the
			// write; undo the write if so
			if c.epoch.Load() != epoch && c.Enabled() {
				c.rdb.Del(ctx, key)
			}
		}
		return val, nil
	})
	if err != nil {
		return out, err
	}
	return v.(T), nil
}
