// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package cache provides a process-local TTL cache for read-heavy API data.
//
// The cache is single-process, non-distributed, and lossy: entries may be
// evicted at any time and callers must fall through to the store. Returned
// values are shared, so callers treat them as read-only.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/specula/internal/metrics"
)

// entry is one cached value with its expiry instant.
type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	cleanupInterval time.Duration

	statsMu     sync.Mutex
	hits        int64
	misses      int64
	evictions   int64
	lastCleanup time.Time
}

// New creates an empty cache. cleanupInterval is the sweeper period used by
// StartSweeper; the sweeper is not started here.
func New(cleanupInterval time.Duration) *Cache {
	return &Cache{
		entries:         make(map[string]entry),
		cleanupInterval: cleanupInterval,
		lastCleanup:     time.Now(),
	}
}

// Get returns the value at key if present and unexpired. Expired entries are
// evicted on access and counted as misses.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		size := len(c.entries)
		c.mu.Unlock()
		metrics.CacheEntries.Set(float64(size))
		c.recordMiss()
		c.recordEvictions(1)
		return nil, false
	}

	c.recordHit()
	return e.data, true
}

// Set stores value at key, expiring after ttl. Overwrites any existing entry.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(size))
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(size))
	if existed {
		c.recordEvictions(1)
	}
}

// Has reports whether key is present and unexpired, without touching the
// hit/miss counters.
func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	return exists && !time.Now().After(e.expiresAt)
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	metrics.CacheEntries.Set(0)
	c.recordEvictions(evicted)
}

// ClearByPrefix removes every entry whose key starts with prefix and returns
// the number removed.
func (c *Cache) ClearByPrefix(prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(size))
	c.recordEvictions(int64(removed))
	return removed
}

// Cleanup evicts all expired entries and returns the number evicted.
func (c *Cache) Cleanup() int {
	now := time.Now()

	c.mu.Lock()
	evicted := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(size))
	c.recordEvictions(int64(evicted))

	c.statsMu.Lock()
	c.lastCleanup = now
	c.statsMu.Unlock()

	return evicted
}

// StartSweeper runs Cleanup every cleanupInterval until ctx is done.
// It blocks; callers run it in a goroutine or a supervised service.
func (c *Cache) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Keys returns a snapshot of all keys, expired entries included.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Size returns the number of entries, expired entries included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	total := int64(len(c.entries))
	c.mu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		TotalKeys:   total,
		LastCleanup: c.lastCleanup,
	}
}

// HitRate returns the hit percentage over all lookups, 0 when none occurred.
func (c *Cache) HitRate() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.hits++
	c.statsMu.Unlock()
	metrics.CacheHits.Inc()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.misses++
	c.statsMu.Unlock()
	metrics.CacheMisses.Inc()
}

func (c *Cache) recordEvictions(n int64) {
	if n == 0 {
		return
	}
	c.statsMu.Lock()
	c.evictions += n
	c.statsMu.Unlock()
	metrics.CacheEvictions.Add(float64(n))
}
