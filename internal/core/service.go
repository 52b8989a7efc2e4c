package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/mikey/content-risk-filter/internal/fingerprint"
)

// ServiceOptions carries the feature toggles that are not scoring policy.
type ServiceOptions struct {
	CacheEnabled     bool
	CacheTTL         time.Duration
	StoreLoadThrough bool
}

// AnalysisService is the core service running the scoring pipeline:
// normalize, short-circuit, cache, extract, aggregate, store.
type AnalysisService struct {
	normalizer Normalizer
	classifier EdgeClassifier
	extractors []Extractor
	aggregator *Aggregator
	cache      ResultCache
	store      VerdictStore
	monitor    PerformanceMonitor
	logger     *zap.Logger
	cfg        EngineConfig
	opts       ServiceOptions

	startedAt     time.Time
	statsMu       sync.Mutex
	analyzed      uint64
	shortCircuits uint64
	byDecision    map[Decision]uint64
}

// NewAnalysisService creates a new analysis service. The store may be nil;
// persistence is an optional collaborator.
func NewAnalysisService(
	normalizer Normalizer,
	classifier EdgeClassifier,
	extractors []Extractor,
	cache ResultCache,
	store VerdictStore,
	monitor PerformanceMonitor,
	logger *zap.Logger,
	cfg EngineConfig,
	opts ServiceOptions,
) *AnalysisService {
	return &AnalysisService{
		normalizer: normalizer,
		classifier: classifier,
		extractors: extractors,
		aggregator: NewAggregator(cfg),
		cache:      cache,
		store:      store,
		monitor:    monitor,
		logger:     logger,
		cfg:        cfg,
		opts:       opts,
		startedAt:  time.Now(),
		byDecision: make(map[Decision]uint64),
	}
}

// Analyze scores one piece of content. Only a truly empty string is a
// caller error; whitespace-only input flows through the pipeline and comes
// back rejected by the empty-content edge case.
func (s *AnalysisService) Analyze(ctx context.Context, text string) (*Verdict, error) {
	if text == "" {
		return nil, ErrEmptyContent
	}
	return s.process(ctx, text), nil
}

// AnalyzeBatch scores many texts with bounded parallelism. The result holds
// exactly one verdict per input, in input order; empty items resolve through
// the pipeline instead of failing the batch.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, texts []string) ([]*Verdict, error) {
	verdicts := make([]*Verdict, len(texts))
	if len(texts) == 0 {
		return verdicts, nil
	}

	workers := s.cfg.BatchConcurrency
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)
	var wg sync.WaitGroup
	for i, text := range texts {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("acquiring batch slot: %w", err)
		}
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			defer sem.Release(1)
			verdicts[i] = s.process(ctx, text)
		}(i, text)
	}
	wg.Wait()

	s.logger.Info("Batch analyzed", zap.Int("items", len(texts)))
	return verdicts, nil
}

// process runs the pipeline. It always produces a verdict; internal
// failures degrade to the fallback verdict rather than erroring.
func (s *AnalysisService) process(ctx context.Context, text string) *Verdict {
	start := time.Now()
	fp := Fingerprint(fingerprint.Of(text))

	stageStart := time.Now()
	content := s.normalizer.Normalize(text)
	s.monitor.RecordStage(StageNormalize, time.Since(stageStart))

	stageStart = time.Now()
	outcome := s.classifier.Classify(content)
	s.monitor.RecordStage(StageEdgeCase, time.Since(stageStart))
	if outcome.Handled {
		verdict := s.aggregator.BuildShortCircuit(fp, outcome)
		shortCircuitCount.WithLabelValues(outcome.Reason).Inc()
		s.logger.Info("Edge case short circuit",
			zap.String("reason", outcome.Reason),
			zap.String("decision", string(verdict.Decision)))
		return s.finish(verdict, start, true, false)
	}

	if s.opts.CacheEnabled {
		if verdict, ok := s.lookup(ctx, fp, start); ok {
			return verdict
		}
	}

	stageStart = time.Now()
	signals := s.extract(content)
	s.monitor.RecordStage(StageExtract, time.Since(stageStart))

	stageStart = time.Now()
	verdict, aggErr := s.aggregate(fp, signals)
	s.monitor.RecordStage(StageAggregate, time.Since(stageStart))

	failed := aggErr != nil
	if !failed {
		if s.opts.CacheEnabled {
			if err := s.cache.Set(ctx, fp, verdict, s.opts.CacheTTL); err != nil {
				s.logger.Error("Failed to update cache", zap.Error(err))
			}
		}
		if s.store != nil {
			if err := s.store.Save(ctx, verdict); err != nil {
				s.logger.Warn("Failed to persist verdict", zap.Error(err))
				failed = true
			}
		}
	}

	s.logger.Info("Content analyzed",
		zap.String("decision", string(verdict.Decision)),
		zap.Float64("score", verdict.Score),
		zap.Float64("confidence", verdict.Confidence),
		zap.Int("signals", len(verdict.Signals)),
		zap.String("fingerprint", string(fp)))
	return s.finish(verdict, start, false, failed)
}

// lookup consults the result cache, then the persistent store when
// load-through is on. Store hits are promoted into the cache.
func (s *AnalysisService) lookup(ctx context.Context, fp Fingerprint, start time.Time) (*Verdict, bool) {
	stageStart := time.Now()
	cached, err := s.cache.Get(ctx, fp)
	s.monitor.RecordStage(StageCache, time.Since(stageStart))

	if err == nil {
		s.monitor.RecordCacheHit()
		cacheEventCount.WithLabelValues("hit").Inc()
		cached.Cached = true
		s.logger.Debug("Cache hit", zap.String("fingerprint", string(fp)))
		return s.finish(cached, start, false, false), true
	}
	s.monitor.RecordCacheMiss()
	cacheEventCount.WithLabelValues("miss").Inc()

	if s.store == nil || !s.opts.StoreLoadThrough {
		return nil, false
	}
	stored, err := s.store.Load(ctx, fp)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Verdict store lookup failed", zap.Error(err))
		}
		return nil, false
	}
	if err := s.cache.Set(ctx, fp, stored, s.opts.CacheTTL); err != nil {
		s.logger.Error("Failed to update cache", zap.Error(err))
	}
	stored.Cached = true
	s.logger.Debug("Store hit", zap.String("fingerprint", string(fp)))
	return s.finish(stored, start, false, false), true
}

// extract fans the catalog out in parallel. A panicking or failing
// extractor is logged and contributes nothing; the others proceed.
func (s *AnalysisService) extract(content *NormalizedContent) []*Signal {
	results := make([]*Signal, len(s.extractors))
	var wg sync.WaitGroup
	for i, ex := range s.extractors {
		wg.Add(1)
		go func(i int, ex Extractor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Extractor panicked",
						zap.String("kind", string(ex.Kind())),
						zap.Any("panic", r))
					extractorFailureCount.WithLabelValues(string(ex.Kind())).Inc()
				}
			}()

			sig, err := ex.Extract(content)
			if err != nil {
				s.logger.Warn("Extractor failed",
					zap.String("kind", string(ex.Kind())),
					zap.Error(err))
				extractorFailureCount.WithLabelValues(string(ex.Kind())).Inc()
				return
			}
			results[i] = sig
		}(i, ex)
	}
	wg.Wait()
	return results
}

// aggregate builds the verdict, degrading to the fallback if scoring
// panics.
func (s *AnalysisService) aggregate(fp Fingerprint, signals []*Signal) (verdict *Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Aggregation failed, using fallback verdict", zap.Any("panic", r))
			verdict = s.aggregator.BuildFallback(fp)
			err = fmt.Errorf("aggregation panic: %v", r)
		}
	}()
	return s.aggregator.Build(fp, signals), nil
}

// finish stamps timing, updates counters, and hands the verdict out.
func (s *AnalysisService) finish(verdict *Verdict, start time.Time, shortCircuit, failed bool) *Verdict {
	elapsed := time.Since(start)
	verdict.ProcessingTimeMs = float64(elapsed.Microseconds()) / 1000.0

	s.statsMu.Lock()
	s.analyzed++
	s.byDecision[verdict.Decision]++
	if shortCircuit {
		s.shortCircuits++
	}
	s.statsMu.Unlock()

	s.monitor.RecordRequest(elapsed, failed)
	verdictCount.WithLabelValues(string(verdict.Decision)).Inc()
	analysisDuration.Observe(elapsed.Seconds())
	return verdict
}

// Stats assembles the combined engine, cache, store, and monitor view.
func (s *AnalysisService) Stats(ctx context.Context) (*ServiceStats, error) {
	var cacheStats CacheStats
	if s.opts.CacheEnabled {
		cacheStats = s.cache.Stats(ctx)
	}
	s.monitor.RecordMemory(cacheStats.MemoryBytes)

	stats := &ServiceStats{
		StartedAt:   s.startedAt,
		Cache:       cacheStats,
		Performance: s.monitor.Report(),
	}

	s.statsMu.Lock()
	stats.Analyzed = s.analyzed
	stats.ShortCircuits = s.shortCircuits
	stats.ByDecision = make(map[Decision]uint64, len(s.byDecision))
	for d, n := range s.byDecision {
		stats.ByDecision[d] = n
	}
	s.statsMu.Unlock()

	if s.store != nil {
		storeStats, err := s.store.Stats(ctx)
		if err != nil {
			s.logger.Warn("Verdict store stats failed", zap.Error(err))
		} else {
			stats.Store = &storeStats
		}
	}
	return stats, nil
}

// ClearCache drops every cached verdict.
func (s *AnalysisService) ClearCache(ctx context.Context) error {
	if !s.opts.CacheEnabled {
		return nil
	}
	return s.cache.Clear(ctx)
}

// CleanupCache removes expired cache entries and reports how many.
func (s *AnalysisService) CleanupCache(ctx context.Context) (int, error) {
	if !s.opts.CacheEnabled {
		return 0, nil
	}
	return s.cache.Cleanup(ctx)
}

// Close releases the cache cleanup loop and the store connection.
func (s *AnalysisService) Close() error {
	if s.cache != nil {
		s.cache.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("closing verdict store: %w", err)
		}
	}
	return nil
}
