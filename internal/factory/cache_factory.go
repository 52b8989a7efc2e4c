package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/adapters/cache"
	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
)

// CacheFactory creates result caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResultCache creates the in-memory verdict cache
func (f *CacheFactory) CreateResultCache() (core.ResultCache, error) {
	cacheCfg := f.cfg.GetCache()

	ttl, err := f.cfg.GetDuration("cache.ttl")
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanupFreq, err := f.cfg.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	return cache.NewMemoryCache(f.logger, cacheCfg.MaxEntries, ttl, cleanupFreq), nil
}

// GetCacheTTL returns the configured cache TTL
func (f *CacheFactory) GetCacheTTL() (time.Duration, error) {
	return f.cfg.GetDuration("cache.ttl")
}

// IsCacheEnabled returns whether caching is enabled
func (f *CacheFactory) IsCacheEnabled() bool {
	return f.cfg.GetBool("cache.enabled")
}
