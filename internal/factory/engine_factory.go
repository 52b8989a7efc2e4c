package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/allowlist"
	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/edgecase"
	"github.com/mikey/content-risk-filter/internal/monitor"
	"github.com/mikey/content-risk-filter/internal/normalize"
	"github.com/mikey/content-risk-filter/internal/rules"
)

// EngineFactory creates the scoring pipeline components
type EngineFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewEngineFactory creates a new engine factory
func NewEngineFactory(cfg *config.Config, logger *zap.Logger) *EngineFactory {
	return &EngineFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNormalizer creates the content normalizer
func (f *EngineFactory) CreateNormalizer() core.Normalizer {
	return normalize.NewNormalizer(f.logger)
}

// CreateClassifier creates the edge case classifier
func (f *EngineFactory) CreateClassifier() core.EdgeClassifier {
	return edgecase.NewClassifier(f.logger)
}

// CreateExtractors creates the signal extractor catalog
func (f *EngineFactory) CreateExtractors() []core.Extractor {
	engineCfg := f.cfg.GetEngine()
	trusted := allowlist.NewChecker(engineCfg.TrustedDomains, f.logger)
	return rules.NewCatalog(trusted)
}

// CreateMonitor creates the performance monitor
func (f *EngineFactory) CreateMonitor() core.PerformanceMonitor {
	monitorCfg := f.cfg.GetMonitor()
	return monitor.NewMonitor(monitor.Config{
		MaxSamples:        monitorCfg.MaxSamples,
		SlowRequestMs:     monitorCfg.SlowRequestMs,
		MemoryBudgetBytes: int64(monitorCfg.MemoryBudgetMB) << 20,
	}, f.logger)
}

// EngineConfig maps the configured thresholds and weights onto the engine.
// Kinds missing from the configured weight map keep their defaults.
func (f *EngineFactory) EngineConfig() core.EngineConfig {
	engineCfg := f.cfg.GetEngine()

	weights := core.DefaultWeights()
	for kind, weight := range engineCfg.Weights {
		weights[core.SignalKind(kind)] = weight
	}

	return core.EngineConfig{
		Weights:          weights,
		AllowMax:         engineCfg.AllowThreshold,
		FlagMax:          engineCfg.FlagThreshold,
		ReviewMax:        engineCfg.ReviewThreshold,
		BatchConcurrency: engineCfg.BatchConcurrency,
	}
}
