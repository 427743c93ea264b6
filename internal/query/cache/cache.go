// Package cache memoizes query results. Results for a given key never
// change once computed, so entries are written without invalidation and a
// concurrent duplicate write is harmless.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "corpus:"

// Cache is a two-level result cache: an in-process LRU, then an optional
// shared store guarded by a circuit breaker. A failing shared store degrades
// to a miss and never fails the query.
type Cache struct {
	kind    string
	local   *LRUStore
	shared  Store
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Cache for results of the given kind ("vector" or "map").
// shared and breaker may be nil.
func New(kind string, local *LRUStore, shared Store, breaker *resilience.CircuitBreaker, m *metrics.Metrics) *Cache {
	return &Cache{
		kind:    kind,
		local:   local,
		shared:  shared,
		breaker: breaker,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache", "kind", kind),
	}
}

// Key hashes the fields identifying a result. Times are rendered in UTC so
// the same instant always hashes the same way.
func Key(kind string, fields ...any) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		switch v := f.(type) {
		case time.Time:
			parts[i] = v.UTC().Format(time.RFC3339Nano)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%s%s:%x", keyPrefix, kind, hash[:16])
}

// Get looks key up in both levels. A shared hit is copied into the local
// level.
func (c *Cache) Get(ctx context.Context, key string) ([]float64, bool) {
	if data, ok, _ := c.local.Get(ctx, key); ok {
		if v, ok := c.decode(key, data); ok {
			return v, true
		}
	}
	if c.shared == nil {
		return nil, false
	}
	var (
		data []byte
		ok   bool
	)
	err := c.guard(func() error {
		var err error
		data, ok, err = c.shared.Get(ctx, key)
		return err
	})
	if err != nil {
		c.logger.Warn("shared cache get failed", "key", key, "error", err)
		c.metrics.ResultCacheTotal.WithLabelValues(c.kind, "error").Inc()
		return nil, false
	}
	if !ok {
		return nil, false
	}
	v, ok := c.decode(key, data)
	if ok {
		c.local.Set(ctx, key, data)
	}
	return v, ok
}

// Set writes both levels. Shared-store failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, v []float64) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	c.local.Set(ctx, key, data)
	if c.shared == nil {
		return
	}
	err = c.guard(func() error { return c.shared.Set(ctx, key, data) })
	if err != nil {
		c.logger.Warn("shared cache set failed", "key", key, "error", err)
		c.metrics.ResultCacheTotal.WithLabelValues(c.kind, "error").Inc()
	}
}

// GetOrCompute returns the cached result for key, or runs compute once per
// key across concurrent callers in this process and caches what it returns.
// Errors are not cached. The shared computation does not inherit any one
// caller's cancellation: a caller whose ctx ends gets ctx.Err() while the
// others keep waiting, and the finished result is still cached. Each caller
// receives its own copy of the result.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) ([]float64, error)) ([]float64, bool, error) {
	if v, ok := c.Get(ctx, key); ok {
		c.metrics.ResultCacheTotal.WithLabelValues(c.kind, "hit").Inc()
		return v, true, nil
	}
	c.metrics.ResultCacheTotal.WithLabelValues(c.kind, "miss").Inc()
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(shared, key); ok {
			return v, nil
		}
		v, err := compute(shared)
		if err != nil {
			return nil, err
		}
		c.Set(shared, key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return slices.Clone(res.Val.([]float64)), false, nil
	}
}

// guard runs a shared-store call through the breaker. Any failure, including
// a rejected call while the breaker is open, is reported as
// ErrCacheUnavailable.
func (c *Cache) guard(fn func() error) error {
	var err error
	if c.breaker == nil {
		err = fn()
	} else {
		err = c.breaker.Execute(fn)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *Cache) decode(key string, data []byte) ([]float64, bool) {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return v, true
}
