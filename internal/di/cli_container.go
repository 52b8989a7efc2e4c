package di

import (
	"flag"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/factory"
	"github.com/mikey/content-risk-filter/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	Text      string
	InputFile string
	BatchFile string

	// Output flags
	Format    string
	ShowStats bool

	// Engine flags
	TrustedDomains string
	EnableCache    bool
	StoreType      string

	// Logging flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Input flags
	flag.StringVar(&flags.Text, "text", "", "Content to analyze")
	flag.StringVar(&flags.InputFile, "file", "", "File with content to analyze (use stdin if neither -text nor -file is given)")
	flag.StringVar(&flags.BatchFile, "batch-file", "", "File with one content item per line, analyzed as a batch")

	// Output flags
	flag.StringVar(&flags.Format, "format", "text", "Output format (text, json)")
	flag.BoolVar(&flags.ShowStats, "stats", false, "Print service statistics after the analysis")

	// Engine flags
	flag.StringVar(&flags.TrustedDomains, "trusted-domains", "", "Comma-separated domains exempt from link scoring")
	flag.BoolVar(&flags.EnableCache, "cache", false, "Enable the verdict cache")
	flag.StringVar(&flags.StoreType, "store", "none", "Verdict store type (none, sqlite, mysql, redis)")

	// Logging flags
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
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

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("cache.enabled", flags.EnableCache)
	v.Set("store.type", flags.StoreType)

	if flags.TrustedDomains != "" {
		v.Set("engine.trusted_domains", strings.Split(flags.TrustedDomains, ","))
	}

	return config.NewFromViper(v)
}
