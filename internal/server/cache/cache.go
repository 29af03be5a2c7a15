// Package cache keeps finished anagram searches in Redis, keyed by the
// letter signature of the sentence and the result limit, so that any
// rearrangement of the same letters shares one entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/occurrence"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/search"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/resilience"
)

const keyPrefix = "anagrams:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Entry is a cached search outcome. Results holds at most the requested
// limit; Total counts every sentence the search produced.
type Entry struct {
	Results   []search.Sentence `json:"results"`
	Total     int               `json:"total"`
	Truncated bool              `json:"truncated"`
}

type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
	Breaker string `json:"breaker"`
}

type ResultCache struct {
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// New wraps store. m may be nil.
func New(store Store, ttl time.Duration, m *metrics.Metrics) *ResultCache {
	c := &ResultCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

// Get returns the cached entry for signature and limit. Store failures and
// an open breaker count as misses.
func (c *ResultCache) Get(ctx context.Context, signature occurrence.Occurrence, limit int) (*Entry, bool) {
	entry, ok := c.load(ctx, buildKey(signature, limit))
	if !ok {
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return entry, true
}

func (c *ResultCache) load(ctx context.Context, key string) (*Entry, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			return nil
		}
		return err
	})
	if err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.errors.Add(1)
		c.logger.Error("cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &entry, true
}

func (c *ResultCache) Set(ctx context.Context, signature occurrence.Occurrence, limit int, entry *Entry) {
	key := buildKey(signature, limit)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	}); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves from the cache or runs compute once per key no matter
// how many callers ask concurrently. The bool reports a cache hit.
func (c *ResultCache) GetOrCompute(
	ctx context.Context,
	signature occurrence.Occurrence,
	limit int,
	compute func() (*Entry, error),
) (*Entry, bool, error) {
	if entry, ok := c.Get(ctx, signature, limit); ok {
		return entry, true, nil
	}
	key := buildKey(signature, limit)
	v, err, shared := c.group.Do(key, func() (any, error) {
		// a flight that just finished may have stored the entry
		if entry, ok := c.load(ctx, key); ok {
			return flight{entry: entry, hit: true}, nil
		}
		entry, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, signature, limit, entry)
		return flight{entry: entry}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.logger.Debug("search shared with concurrent caller", "key", key)
	}
	f := v.(flight)
	return f.entry, f.hit, nil
}

type flight struct {
	entry *Entry
	hit   bool
}

// Invalidate drops every cached search and returns how many keys went.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *ResultCache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Errors:  c.errors.Load(),
		Breaker: c.breaker.State().String(),
	}
}

func buildKey(signature occurrence.Occurrence, limit int) string {
	h := sha256.New()
	h.Write([]byte(signature.Key()))
	h.Write([]byte{0})
	h.Write(strconv.AppendInt(nil, int64(limit), 10))
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
