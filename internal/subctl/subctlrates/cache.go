// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlrates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/kvstore"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a cached table is fresh.
	DefaultTTL = 24 * time.Hour

	cacheKeyPrefix = "exchange-rates-"
)

// CacheOption is a functional option for configuring the Cache.
type CacheOption func(*Cache)

// CacheWithNow sets the clock used for freshness checks and timestamps.
func CacheWithNow(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// CacheWithTTL sets how long a cached table is fresh.
func CacheWithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// CacheWithMetrics sets the metrics to record hits and misses to.
func CacheWithMetrics(metrics *subctlmetrics.Metrics) CacheOption {
	return func(c *Cache) {
		c.metrics = metrics
	}
}

// Cache serves rate tables from a key-value store, fetching and storing a new
// table when the stored one is missing or stale.
//
// A Cache is safe for concurrent use. Concurrent misses for the same base
// share one fetch. Returned tables are shared and must not be modified.
type Cache struct {
	logger  *slog.Logger
	store   kvstore.Store
	fetcher Fetcher
	now     func() time.Time
	ttl     time.Duration
	metrics *subctlmetrics.Metrics
	group   singleflight.Group
}

// NewCache returns a new Cache.
func NewCache(
	logger *slog.Logger,
	store kvstore.Store,
	fetcher Fetcher,
	options ...CacheOption,
) *Cache {
	cache := &Cache{
		logger:  logger,
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
		ttl:     DefaultTTL,
	}
	for _, option := range options {
		option(cache)
	}
	return cache
}

// GetOrFetch returns the table for the base currency.
//
// A stored table is returned if it is younger than the TTL. Otherwise a new
// table is fetched and stored, replacing the old one. Stale tables are never
// returned, and fetch errors are returned as-is. Storage errors never fail the
// call: a failed read is a miss and a failed write is logged.
func (c *Cache) GetOrFetch(ctx context.Context, baseCurrency string) (*fxrate.Table, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if table, ok := c.load(ctx, base); ok {
		c.metrics.IncrRateCache(subctlmetrics.CacheResultHit)
		return table, nil
	}
	c.metrics.IncrRateCache(subctlmetrics.CacheResultMiss)
	resultC := c.group.DoChan(base, func() (any, error) {
		// The shared fetch must outlive any single caller's cancellation.
		fetchCtx := context.WithoutCancel(ctx)
		table, err := c.fetcher.Fetch(fetchCtx, base)
		if err != nil {
			return nil, err
		}
		c.save(fetchCtx, base, table)
		return table, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-resultC:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*fxrate.Table), nil
	}
}

// Invalidate removes any stored table for the base currency.
func (c *Cache) Invalidate(ctx context.Context, baseCurrency string) error {
	return c.store.Delete(ctx, cacheKey(baseCurrency))
}

// *** PRIVATE ***

// cacheEntry is the stored form of a table.
type cacheEntry struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
	// Timestamp is when the table was stored, in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

func (c *Cache) load(ctx context.Context, base string) (*fxrate.Table, bool) {
	key := cacheKey(base)
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("reading cached rates failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		c.logger.Warn("decoding cached rates failed", "key", key, "error", err)
		return nil, false
	}
	if !strings.EqualFold(entry.Base, base) {
		c.logger.Warn("cached rates have wrong base", "key", key, "cached_base", entry.Base)
		return nil, false
	}
	age := c.now().Sub(time.UnixMilli(entry.Timestamp))
	if age >= c.ttl {
		c.logger.Debug("cached rates are stale", "key", key, "age", age)
		return nil, false
	}
	return fxrate.NewTable(entry.Base, entry.Date, entry.Rates), true
}

func (c *Cache) save(ctx context.Context, base string, table *fxrate.Table) {
	key := cacheKey(base)
	data, err := json.Marshal(cacheEntry{
		Base:      table.Base,
		Date:      table.Date,
		Rates:     table.Rates,
		Timestamp: c.now().UnixMilli(),
	})
	if err != nil {
		c.logger.Warn("encoding rates for cache failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, string(data)); err != nil {
		c.logger.Warn("writing cached rates failed", "key", key, "error", err)
	}
}

func cacheKey(baseCurrency string) string {
	return fmt.Sprintf("%s%s", cacheKeyPrefix, strings.ToUpper(strings.TrimSpace(baseCurrency)))
}
