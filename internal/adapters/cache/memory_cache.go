// Package cache holds the in-memory result cache sitting in front of the
// extraction pipeline.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound is returned when no entry exists for a fingerprint
	ErrNotFound = errors.New("cache entry not found")
	// ErrExpired is returned when the entry exists but has outlived its TTL
	ErrExpired = errors.New("cache entry expired")
)

// MemoryCache is an in-memory implementation of the ResultCache interface.
// Eviction prefers entries earning the fewest hits per hour of residency;
// ties fall to the oldest insertion.
type MemoryCache struct {
	entries     map[core.Fingerprint]*core.CacheEntry
	order       []core.Fingerprint
	sizes       map[core.Fingerprint]int
	mu          sync.RWMutex
	logger      *zap.Logger
	maxEntries  int
	defaultTTL  time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
	approxBytes int64
}

// NewMemoryCache creates a new in-memory cache and starts its background
// cleanup task.
func NewMemoryCache(logger *zap.Logger, maxEntries int, defaultTTL, cleanupFreq time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	cache := &MemoryCache{
		entries:     make(map[core.Fingerprint]*core.CacheEntry),
		sizes:       make(map[core.Fingerprint]int),
		logger:      logger,
		maxEntries:  maxEntries,
		defaultTTL:  defaultTTL,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache
}

// Get retrieves the cached verdict for a fingerprint. Expired entries are
// dropped on access and reported as misses. Hits bump both the entry and
// the lifetime counters; callers receive a private copy.
func (c *MemoryCache) Get(ctx context.Context, fp core.Fingerprint) (*core.Verdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fp]
	if !ok {
		c.misses++
		return nil, ErrNotFound
	}

	if c.expired(entry, time.Now()) {
		c.remove(fp)
		c.expirations++
		c.misses++
		return nil, ErrExpired
	}

	entry.HitCount++
	c.hits++
	return entry.Verdict.Clone(), nil
}

// Set stores a verdict. A zero ttl falls back to the cache default; at
// capacity the lowest hits-per-age entry makes room first.
func (c *MemoryCache) Set(ctx context.Context, fp core.Fingerprint, verdict *core.Verdict, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fp]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLowest()
	}

	size := 0
	if data, err := json.Marshal(verdict); err == nil {
		size = len(data)
	}

	if _, exists := c.entries[fp]; !exists {
		c.order = append(c.order, fp)
	} else {
		c.approxBytes -= int64(c.sizes[fp])
	}
	c.entries[fp] = &core.CacheEntry{
		Verdict:   verdict.Clone(),
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	c.sizes[fp] = size
	c.approxBytes += int64(size)
	return nil
}

// Has reports whether a live entry exists. Counters stay untouched, so a
// probe never skews the hit rate.
func (c *MemoryCache) Has(ctx context.Context, fp core.Fingerprint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[fp]
	return ok && !c.expired(entry, time.Now())
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *MemoryCache) Cleanup(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for fp, entry := range c.entries {
		if c.expired(entry, now) {
			c.remove(fp)
			c.expirations++
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", removed))
	}
	return removed, nil
}

// Clear drops every entry. Lifetime hit and miss counters survive so the
// observed hit rate stays meaningful across clears.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[core.Fingerprint]*core.CacheEntry)
	c.sizes = make(map[core.Fingerprint]int)
	c.order = c.order[:0]
	c.approxBytes = 0
	return nil
}

// Stats returns a point-in-time snapshot.
func (c *MemoryCache) Stats(ctx context.Context) core.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return core.CacheStats{
		Entries:     len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
		HitRate:     hitRate,
		MemoryBytes: c.approxBytes,
	}
}

// Stop stops the background cleanup task.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// evictLowest removes the entry with the worst hits-per-age score. Age is
// floored at six minutes so brand-new entries do not divide by near zero.
// Walking insertion order with a strict comparison keeps ties on the
// first-inserted entry. Caller holds the lock.
func (c *MemoryCache) evictLowest() {
	if len(c.order) == 0 {
		return
	}

	now := time.Now()
	victim := c.order[0]
	lowest := evictionScore(c.entries[victim], now)
	for _, fp := range c.order[1:] {
		if score := evictionScore(c.entries[fp], now); score < lowest {
			victim, lowest = fp, score
		}
	}

	c.remove(victim)
	c.evictions++
	c.logger.Debug("Evicted cache entry", zap.String("fingerprint", string(victim)))
}

func evictionScore(entry *core.CacheEntry, now time.Time) float64 {
	ageHours := now.Sub(entry.CreatedAt).Hours()
	if ageHours < 0.1 {
		ageHours = 0.1
	}
	return float64(entry.HitCount) / ageHours
}

// remove deletes an entry and its bookkeeping. Caller holds the lock.
func (c *MemoryCache) remove(fp core.Fingerprint) {
	delete(c.entries, fp)
	c.approxBytes -= int64(c.sizes[fp])
	delete(c.sizes, fp)
	for i, key := range c.order {
		if key == fp {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *MemoryCache) expired(entry *core.CacheEntry, now time.Time) bool {
	if entry.TTL <= 0 {
		return false
	}
	return now.After(entry.CreatedAt.Add(entry.TTL))
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
	if c.cleanupFreq <= 0 {
		return
	}
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}
