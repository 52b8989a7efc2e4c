package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/adapters/cache"
	"github.com/mikey/content-risk-filter/internal/core"
	"github.com/mikey/content-risk-filter/internal/edgecase"
	"github.com/mikey/content-risk-filter/internal/fingerprint"
	"github.com/mikey/content-risk-filter/internal/monitor"
	"github.com/mikey/content-risk-filter/internal/normalize"
	"github.com/mikey/content-risk-filter/internal/rules"
)

const (
	cleanText   = "Just a quiet day at the lake with my family and a good book"
	profaneText = "fuck this and that is fucking bullshit"
)

type fakeStore struct {
	mu    sync.Mutex
	saved map[core.Fingerprint]*core.Verdict
	loads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[core.Fingerprint]*core.Verdict)}
}

func (f *fakeStore) Save(ctx context.Context, v *core.Verdict) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[v.Fingerprint] = v.Clone()
	return nil
}

func (f *fakeStore) Load(ctx context.Context, fp core.Fingerprint) (*core.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	v, ok := f.saved[fp]
	if !ok {
		return nil, core.ErrNotFound
	}
	return v.Clone(), nil
}

func (f *fakeStore) Stats(ctx context.Context) (core.StoreStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.StoreStats{Kind: "fake", Records: int64(len(f.saved))}, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *fakeStore) savedVerdict(fp core.Fingerprint) *core.Verdict {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[fp]
}

type failingExtractor struct{}

func (failingExtractor) Kind() core.SignalKind { return core.KindWordPatterns }
func (failingExtractor) Extract(*core.NormalizedContent) (*core.Signal, error) {
	return nil, errors.New("lexicon unavailable")
}

type explodingExtractor struct{}

func (explodingExtractor) Kind() core.SignalKind { return core.KindCharacterPatterns }
func (explodingExtractor) Extract(*core.NormalizedContent) (*core.Signal, error) {
	panic("index out of range")
}

func newService(store core.VerdictStore, opts core.ServiceOptions, extractors []core.Extractor) (*core.AnalysisService, *cache.MemoryCache) {
	logger := zap.NewNop()
	resultCache := cache.NewMemoryCache(logger, 64, time.Minute, 0)
	if extractors == nil {
		extractors = rules.NewCatalog(nil)
	}
	svc := core.NewAnalysisService(
		normalize.NewNormalizer(logger),
		edgecase.NewClassifier(logger),
		extractors,
		resultCache,
		store,
		monitor.NewMonitor(monitor.Config{}, logger),
		logger,
		core.DefaultEngineConfig(),
		opts,
	)
	return svc, resultCache
}

func cachedOpts() core.ServiceOptions {
	return core.ServiceOptions{CacheEnabled: true, CacheTTL: time.Minute}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	assert := assert.New(t)
	svc, _ := newService(nil, cachedOpts(), nil)

	v, err := svc.Analyze(context.Background(), "")
	assert.Nil(v)
	assert.ErrorIs(err, core.ErrEmptyContent)
}

func TestAnalyzeCleanContent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, _ := newService(nil, cachedOpts(), nil)

	v, err := svc.Analyze(context.Background(), cleanText)
	require.NoError(err)

	assert.Equal(core.DecisionAllow, v.Decision)
	assert.Zero(v.Score)
	assert.Equal(1.0, v.Confidence)
	assert.Empty(v.Signals)
	assert.False(v.Cached)
	assert.Equal(core.Fingerprint(fingerprint.Of(cleanText)), v.Fingerprint)
	assert.GreaterOrEqual(v.ProcessingTimeMs, 0.0)
}

func TestAnalyzeProfaneContent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, _ := newService(nil, cachedOpts(), nil)

	v, err := svc.Analyze(context.Background(), profaneText)
	require.NoError(err)

	assert.Equal(core.DecisionReject, v.Decision)
	assert.InDelta(0.8857142857142857, v.Score, 1e-9)
	require.Len(v.Signals, 1)
	assert.Equal(core.KindProfanity, v.Signals[0].Kind)
	assert.Equal(core.SeverityHigh, v.Signals[0].Severity)
	assert.InDelta(0.9, v.Signals[0].Weight, 1e-9)
}

func TestAnalyzeShortCircuit(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, resultCache := newService(nil, cachedOpts(), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := svc.Analyze(ctx, "   \t  ")
		require.NoError(err)
		assert.Equal(core.DecisionReject, v.Decision)
		assert.Equal(edgecase.ReasonEmptyContent, v.Reason)
		assert.Equal(0.9, v.Score)
		assert.Equal(0.8, v.Confidence)
		assert.Empty(v.Signals)
		assert.False(v.Cached)
	}

	// Short-circuit verdicts never enter the cache.
	fp := core.Fingerprint(fingerprint.Of("   \t  "))
	assert.False(resultCache.Has(ctx, fp))

	stats, err := svc.Stats(ctx)
	require.NoError(err)
	assert.Equal(uint64(2), stats.ShortCircuits)
}

func TestAnalyzeCachedSecondCall(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, _ := newService(nil, cachedOpts(), nil)
	ctx := context.Background()

	first, err := svc.Analyze(ctx, cleanText)
	require.NoError(err)
	assert.False(first.Cached)

	second, err := svc.Analyze(ctx, cleanText)
	require.NoError(err)
	assert.True(second.Cached)
	assert.Equal(first.Decision, second.Decision)
	assert.Equal(first.Score, second.Score)
	assert.Equal(first.Fingerprint, second.Fingerprint)

	stats, err := svc.Stats(ctx)
	require.NoError(err)
	assert.Equal(uint64(2), stats.Analyzed)
	assert.Equal(uint64(1), stats.Cache.Hits)
	assert.Equal(uint64(1), stats.Cache.Misses)
	assert.Equal(1, stats.Cache.Entries)
}

func TestAnalyzeSurvivesExtractorFailures(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, _ := newService(nil, cachedOpts(), []core.Extractor{failingExtractor{}, explodingExtractor{}})
	ctx := context.Background()

	v, err := svc.Analyze(ctx, "this is a perfectly normal day for all of us")
	require.NoError(err)
	assert.Equal(core.DecisionAllow, v.Decision)
	assert.Empty(v.Signals)

	stats, err := svc.Stats(ctx)
	require.NoError(err)
	assert.Equal(uint64(1), stats.Performance.Requests)
}

func TestAnalyzeStorePersistsAndLoadsThrough(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	store := newFakeStore()
	opts := core.ServiceOptions{CacheEnabled: true, CacheTTL: time.Minute, StoreLoadThrough: true}
	ctx := context.Background()

	svc1, _ := newService(store, opts, nil)
	v1, err := svc1.Analyze(ctx, cleanText)
	require.NoError(err)

	saved := store.savedVerdict(v1.Fingerprint)
	require.NotNil(saved)
	assert.Equal(v1.Decision, saved.Decision)

	// A fresh service with a cold cache finds the verdict in the store and
	// promotes it.
	svc2, cache2 := newService(store, opts, nil)
	v2, err := svc2.Analyze(ctx, cleanText)
	require.NoError(err)
	assert.True(v2.Cached)
	assert.Equal(v1.Decision, v2.Decision)
	assert.True(cache2.Has(ctx, v1.Fingerprint))
	assert.Equal(2, store.loadCount())

	stats, err := svc2.Stats(ctx)
	require.NoError(err)
	require.NotNil(stats.Store)
	assert.Equal(int64(1), stats.Store.Records)
}

func TestAnalyzeBatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, _ := newService(nil, cachedOpts(), nil)
	ctx := context.Background()

	texts := []string{cleanText, profaneText, "   "}
	verdicts, err := svc.AnalyzeBatch(ctx, texts)
	require.NoError(err)
	require.Len(verdicts, 3)

	for i, v := range verdicts {
		require.NotNil(v, i)
		assert.Equal(core.Fingerprint(fingerprint.Of(texts[i])), v.Fingerprint)
	}
	assert.Equal(core.DecisionAllow, verdicts[0].Decision)
	assert.Equal(core.DecisionReject, verdicts[1].Decision)
	assert.Equal(core.DecisionReject, verdicts[2].Decision)
	assert.Equal(edgecase.ReasonEmptyContent, verdicts[2].Reason)

	stats, err := svc.Stats(ctx)
	require.NoError(err)
	assert.Equal(uint64(3), stats.Analyzed)
	assert.Equal(uint64(1), stats.ShortCircuits)
	assert.Equal(uint64(1), stats.ByDecision[core.DecisionAllow])
	assert.Equal(uint64(2), stats.ByDecision[core.DecisionReject])
	assert.Equal(2, stats.Cache.Entries)

	empty, err := svc.AnalyzeBatch(ctx, nil)
	require.NoError(err)
	assert.Empty(empty)
}

func TestAnalyzeCacheDisabled(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, resultCache := newService(nil, core.ServiceOptions{}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := svc.Analyze(ctx, cleanText)
		require.NoError(err)
		assert.False(v.Cached)
	}
	assert.Equal(0, resultCache.Stats(ctx).Entries)

	stats, err := svc.Stats(ctx)
	require.NoError(err)
	assert.Zero(stats.Cache.Entries)
}

func TestServiceCacheOpsAndClose(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	svc, resultCache := newService(nil, cachedOpts(), nil)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, cleanText)
	require.NoError(err)
	assert.Equal(1, resultCache.Stats(ctx).Entries)

	removed, err := svc.CleanupCache(ctx)
	require.NoError(err)
	assert.Zero(removed)

	require.NoError(svc.ClearCache(ctx))
	assert.Equal(0, resultCache.Stats(ctx).Entries)

	assert.NoError(svc.Close())
}
