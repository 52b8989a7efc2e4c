package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/adapters/store"
	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
)

// StoreFactory creates persistent verdict stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateVerdictStore creates a verdict store based on the configuration.
// Store type "none" returns a nil store; persistence is optional.
func (f *StoreFactory) CreateVerdictStore() (core.VerdictStore, error) {
	storeCfg := f.cfg.GetStore()
	if storeCfg.Type == "none" || storeCfg.Type == "" {
		return nil, nil
	}

	retention, err := f.cfg.GetDuration("store.retention")
	if err != nil {
		return nil, fmt.Errorf("invalid store retention: %w", err)
	}
	sweepFreq, err := f.cfg.GetDuration("store.sweep_frequency")
	if err != nil {
		return nil, fmt.Errorf("invalid store sweep frequency: %w", err)
	}

	switch storeCfg.Type {
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(storeCfg.SQLitePath, f.logger, retention, sweepFreq)
	case "mysql":
		return store.NewMySQLStore(storeCfg.MySQLDSN, f.logger, retention, sweepFreq)
	case "redis":
		return store.NewRedisStore(storeCfg.RedisURL, f.logger, retention)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

// IsLoadThrough returns whether cache misses consult the store
func (f *StoreFactory) IsLoadThrough() bool {
	return f.cfg.GetBool("store.load_through")
}
