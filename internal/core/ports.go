package core

import (
	"context"
	"time"
)

// Normalizer cleans raw text and derives the metadata later stages key off.
// It never fails; degenerate input yields empty content with zeroed counts.
type Normalizer interface {
	Normalize(text string) *NormalizedContent
}

// EdgeClassifier runs the ordered short-circuit predicates over normalized
// content. First match wins.
type EdgeClassifier interface {
	Classify(content *NormalizedContent) EdgeCaseOutcome
}

// Extractor inspects normalized content for one kind of risk signal. A nil
// signal with a nil error means nothing to report.
type Extractor interface {
	Kind() SignalKind
	Extract(content *NormalizedContent) (*Signal, error)
}

// ResultCache stores verdicts keyed by content fingerprint.
type ResultCache interface {
	// Get retrieves the cached verdict for a fingerprint. Misses and
	// expired entries return an error; hits bump the entry hit counter.
	Get(ctx context.Context, fp Fingerprint) (*Verdict, error)

	// Set stores a verdict, evicting if the cache is at capacity. A zero
	// ttl uses the cache default.
	Set(ctx context.Context, fp Fingerprint, verdict *Verdict, ttl time.Duration) error

	// Has reports whether a live entry exists, without touching counters.
	Has(ctx context.Context, fp Fingerprint) bool

	// Cleanup removes expired entries and returns how many were dropped.
	Cleanup(ctx context.Context) (int, error)

	// Clear drops all entries. Lifetime hit/miss counters survive.
	Clear(ctx context.Context) error

	// Stats returns a point-in-time snapshot.
	Stats(ctx context.Context) CacheStats

	// Stop terminates the background cleanup task.
	Stop()
}

// VerdictStore persists verdicts beyond process lifetime. A store is
// optional; the engine is fully functional without one.
type VerdictStore interface {
	Save(ctx context.Context, verdict *Verdict) error
	Load(ctx context.Context, fp Fingerprint) (*Verdict, error)
	Stats(ctx context.Context) (StoreStats, error)
	Close() error
}

// PerformanceMonitor observes pipeline timings and engine counters.
type PerformanceMonitor interface {
	RecordRequest(d time.Duration, failed bool)
	RecordStage(stage string, d time.Duration)
	RecordCacheHit()
	RecordCacheMiss()

	// RecordMemory updates the cache memory gauge consulted by the
	// memory recommendation.
	RecordMemory(bytes int64)

	Report() PerformanceReport
}

// StreamFilter is a long-running content source feeding the service.
type StreamFilter interface {
	Start() error
	Stop() error
}
