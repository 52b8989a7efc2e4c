// Package monitor implements the performance observer: a bounded rolling
// window of request latencies, per-stage accounting, and the tuning
// recommendations derived from both.
package monitor

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

const (
	defaultMaxSamples = 1000
	defaultSlowMs     = 100.0
	defaultMemBudget  = 64 << 20

	cacheRecMinRequests = 50
	cacheRecHitRate     = 0.2
	preprocSlowMs       = 25.0
	errorRateLimit      = 0.01
)

// Config bounds the sample window and sets the recommendation thresholds.
type Config struct {
	MaxSamples        int
	SlowRequestMs     float64
	MemoryBudgetBytes int64
}

// Monitor tracks latencies and counters for the analysis pipeline. All
// methods are safe for concurrent use.
type Monitor struct {
	mu      sync.Mutex
	samples []float64
	next    int

	requests    uint64
	errors      uint64
	cacheHits   uint64
	cacheMisses uint64
	memoryBytes int64

	stageTotal map[string]time.Duration
	stageCount map[string]uint64

	cfg    Config
	logger *zap.Logger
}

// NewMonitor creates a new Monitor.
func NewMonitor(cfg Config, logger *zap.Logger) *Monitor {
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = defaultMaxSamples
	}
	if cfg.SlowRequestMs <= 0 {
		cfg.SlowRequestMs = defaultSlowMs
	}
	if cfg.MemoryBudgetBytes <= 0 {
		cfg.MemoryBudgetBytes = defaultMemBudget
	}
	return &Monitor{
		samples:    make([]float64, 0, cfg.MaxSamples),
		stageTotal: make(map[string]time.Duration),
		stageCount: make(map[string]uint64),
		cfg:        cfg,
		logger:     logger,
	}
}

// RecordRequest adds one completed analysis to the rolling window. Old
// samples fall out once the window is full.
func (m *Monitor) RecordRequest(d time.Duration, failed bool) {
	ms := float64(d.Microseconds()) / 1000.0
	if ms > m.cfg.SlowRequestMs {
		m.logger.Debug("Slow analysis", zap.Float64("elapsed_ms", ms))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if failed {
		m.errors++
	}
	if len(m.samples) < m.cfg.MaxSamples {
		m.samples = append(m.samples, ms)
		return
	}
	m.samples[m.next] = ms
	m.next = (m.next + 1) % m.cfg.MaxSamples
}

// RecordStage accumulates per-stage time.
func (m *Monitor) RecordStage(stage string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stageTotal[stage] += d
	m.stageCount[stage]++
}

// RecordCacheHit counts one result served from cache.
func (m *Monitor) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// RecordCacheMiss counts one full pipeline run.
func (m *Monitor) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

// RecordMemory updates the cache memory gauge.
func (m *Monitor) RecordMemory(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memoryBytes = bytes
}

// Report computes the current metrics and recommendations.
func (m *Monitor) Report() core.PerformanceReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]float64(nil), m.samples...)
	sort.Float64s(sorted)

	report := core.PerformanceReport{
		Requests:    m.requests,
		Errors:      m.errors,
		CacheHits:   m.cacheHits,
		CacheMisses: m.cacheMisses,
		AvgMs:       mean(sorted),
		P95Ms:       percentile(sorted, 0.95),
		P99Ms:       percentile(sorted, 0.99),
		StageAvgMs:  make(map[string]float64, len(m.stageTotal)),
	}
	if m.requests > 0 {
		report.ErrorRate = float64(m.errors) / float64(m.requests)
	}
	if lookups := m.cacheHits + m.cacheMisses; lookups > 0 {
		report.CacheHitRate = float64(m.cacheHits) / float64(lookups)
	}
	for stage, total := range m.stageTotal {
		if n := m.stageCount[stage]; n > 0 {
			report.StageAvgMs[stage] = float64(total.Microseconds()) / 1000.0 / float64(n)
		}
	}

	report.Recommendations = m.recommendations(report)
	report.Health = healthFor(report.Recommendations)
	return report
}

// recommendations inspects the report and produces tuning hints. Caller
// holds the lock.
func (m *Monitor) recommendations(r core.PerformanceReport) []core.Recommendation {
	recs := []core.Recommendation{}

	if r.Requests >= cacheRecMinRequests && r.CacheHits+r.CacheMisses > 0 && r.CacheHitRate < cacheRecHitRate {
		recs = append(recs, core.Recommendation{
			Category: "cache",
			Severity: core.SeverityMedium,
			Message: fmt.Sprintf("cache hit rate %.2f over %d requests; consider a longer TTL or more entries",
				r.CacheHitRate, r.Requests),
		})
	}

	if extractAvg, ok := r.StageAvgMs[core.StageExtract]; ok && extractAvg > m.cfg.SlowRequestMs {
		sev := core.SeverityMedium
		if extractAvg > 5*m.cfg.SlowRequestMs {
			sev = core.SeverityHigh
		}
		recs = append(recs, core.Recommendation{
			Category: "rules",
			Severity: sev,
			Message:  fmt.Sprintf("signal extraction averaging %.1fms per request", extractAvg),
		})
	}

	if normAvg, ok := r.StageAvgMs[core.StageNormalize]; ok && normAvg > preprocSlowMs {
		recs = append(recs, core.Recommendation{
			Category: "preprocessing",
			Severity: core.SeverityMedium,
			Message:  fmt.Sprintf("normalization averaging %.1fms per request", normAvg),
		})
	}

	if m.memoryBytes > m.cfg.MemoryBudgetBytes {
		recs = append(recs, core.Recommendation{
			Category: "memory",
			Severity: core.SeverityMedium,
			Message: fmt.Sprintf("result cache holds ~%dKB against a %dKB budget",
				m.memoryBytes/1024, m.cfg.MemoryBudgetBytes/1024),
		})
	}

	if r.Requests > 0 && r.ErrorRate > errorRateLimit {
		recs = append(recs, core.Recommendation{
			Category: "errors",
			Severity: core.SeverityHigh,
			Message:  fmt.Sprintf("error rate %.2f%% exceeds 1%%", r.ErrorRate*100),
		})
	}

	return recs
}

// healthFor folds recommendation severities into one state: any high means
// unhealthy, three or more mediums mean degraded.
func healthFor(recs []core.Recommendation) string {
	mediums := 0
	for _, rec := range recs {
		switch rec.Severity {
		case core.SeverityHigh:
			return core.HealthUnhealthy
		case core.SeverityMedium:
			mediums++
		}
	}
	if mediums > 2 {
		return core.HealthDegraded
	}
	return core.HealthHealthy
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// percentile indexes the sorted window at ceil(n*p)-1, clamped to range.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
