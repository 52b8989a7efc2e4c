package factory

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/adapters/filter"
	"github.com/mikey/content-risk-filter/internal/config"
	"github.com/mikey/content-risk-filter/internal/core"
)

// FilterFactory creates stream filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateStreamFilter creates a stream filter based on the configuration
func (f *FilterFactory) CreateStreamFilter() (core.StreamFilter, error) {
	filterType := f.cfg.GetString("filter.type")

	switch filterType {
	case "pipe":
		timeout, err := f.cfg.GetDuration("filter.timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid filter timeout: %w", err)
		}
		return filter.NewPipeFilter(f.service, f.logger, os.Stdin, os.Stdout, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
