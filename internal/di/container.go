package di

import (
	"go.uber.org/dig"

	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/factory"
	"github.com/mikey/content-risk-filter/internal/logging"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register pipeline components
	if err := container.Provide(func(f *factory.EngineFactory) core.Normalizer {
		return f.CreateNormalizer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EngineFactory) core.EdgeClassifier {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EngineFactory) []core.Extractor {
		return f.CreateExtractors()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EngineFactory) core.PerformanceMonitor {
		return f.CreateMonitor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.EngineFactory) core.EngineConfig {
		return f.EngineConfig()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ResultCache, error) {
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register verdict store
	if err := container.Provide(func(f *factory.StoreFactory) (core.VerdictStore, error) {
		return f.CreateVerdictStore()
	}); err != nil {
		return nil, err
	}

	// Register service options
	if err := container.Provide(func(cf *factory.CacheFactory, sf *factory.StoreFactory) (core.ServiceOptions, error) {
		ttl, err := cf.GetCacheTTL()
		if err != nil {
			return core.ServiceOptions{}, err
		}
		return core.ServiceOptions{
			CacheEnabled:     cf.IsCacheEnabled(),
			CacheTTL:         ttl,
			StoreLoadThrough: sf.IsLoadThrough(),
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register stream filter
	if err := container.Provide(func(f *factory.FilterFactory) (core.StreamFilter, error) {
		return f.CreateStreamFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
