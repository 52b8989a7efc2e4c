package core

import (
	"time"
)

// Fingerprint identifies content by a hash of its trimmed, case-folded text.
// Two inputs that differ only in surrounding whitespace or letter case share
// a fingerprint.
type Fingerprint string

// SignalKind enumerates the closed set of risk indicators the engine knows.
type SignalKind string

const (
	KindProfanity         SignalKind = "profanity"
	KindCapsAbuse         SignalKind = "caps_abuse"
	KindRepetitiveContent SignalKind = "repetitive_content"
	KindPromotional       SignalKind = "promotional"
	KindSuspiciousLinks   SignalKind = "suspicious_links"
	KindFakeEngagement    SignalKind = "fake_engagement"
	KindCharacterPatterns SignalKind = "character_patterns"
	KindWordPatterns      SignalKind = "word_patterns"
	KindSentenceStructure SignalKind = "sentence_structure"
)

// Severity grades how strongly a single signal indicts the content.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Decision is the final disposition of an analyzed piece of content.
type Decision string

const (
	DecisionAllow       Decision = "allow"
	DecisionFlag        Decision = "flag"
	DecisionUnderReview Decision = "under_review"
	DecisionReject      Decision = "reject"
)

// Signal represents one risk indicator found in the content. Weight is
// stamped by the aggregation engine from the active weight table; extractors
// leave it zero.
type Signal struct {
	Kind       SignalKind `json:"kind"`
	Severity   Severity   `json:"severity"`
	Confidence float64    `json:"confidence"`
	Evidence   []string   `json:"evidence,omitempty"`
	Weight     float64    `json:"weight"`
}

// Verdict represents the outcome of analyzing one piece of content.
type Verdict struct {
	ProcessingID     string      `json:"processing_id"`
	Decision         Decision    `json:"decision"`
	Score            float64     `json:"score"`
	Confidence       float64     `json:"confidence"`
	Signals          []Signal    `json:"signals"`
	ProcessingTimeMs float64     `json:"processing_time_ms"`
	Fingerprint      Fingerprint `json:"fingerprint"`
	AnalyzedAt       time.Time   `json:"analyzed_at"`
	Cached           bool        `json:"cached"`
	Reason           string      `json:"reason,omitempty"`
}

// Clone returns a copy safe to hand out while the original stays cached.
func (v *Verdict) Clone() *Verdict {
	c := *v
	c.Signals = make([]Signal, len(v.Signals))
	copy(c.Signals, v.Signals)
	for i := range c.Signals {
		if len(v.Signals[i].Evidence) > 0 {
			c.Signals[i].Evidence = append([]string(nil), v.Signals[i].Evidence...)
		}
	}
	return &c
}

// NormalizedContent carries the cleaned text plus the metadata the
// downstream stages key off.
type NormalizedContent struct {
	Original    string
	Normalized  string
	WordCount   int
	CharCount   int
	HasURLs     bool
	HasHashtags bool
	HasMentions bool
	HasEmoji    bool
	Language    string
}

// Languages the bundled discriminator can report.
const (
	LanguageEnglish = "en"
	LanguageUnknown = "unknown"
)

// EdgeCaseOutcome reports whether the short-circuit classifier claimed the
// content before extraction ran.
type EdgeCaseOutcome struct {
	Handled bool
	Reason  string
	Action  Decision
}

type CacheEntry struct {
	Verdict   *Verdict
	CreatedAt time.Time
	HitCount  int64
	TTL       time.Duration
}

// CacheStats is a point-in-time snapshot of the result cache.
type CacheStats struct {
	Entries     int     `json:"entries"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
	HitRate     float64 `json:"hit_rate"`
	MemoryBytes int64   `json:"memory_bytes"`
}

// StoreStats describes a persistent verdict store, when one is configured.
type StoreStats struct {
	Kind      string `json:"kind"`
	Records   int64  `json:"records"`
	SizeBytes int64  `json:"size_bytes"`
}

// Recommendation is a tuning hint derived from observed performance.
type Recommendation struct {
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Health states reported by the performance monitor.
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// PerformanceReport summarizes request latencies and engine counters.
type PerformanceReport struct {
	Requests        uint64             `json:"requests"`
	Errors          uint64             `json:"errors"`
	ErrorRate       float64            `json:"error_rate"`
	CacheHits       uint64             `json:"cache_hits"`
	CacheMisses     uint64             `json:"cache_misses"`
	CacheHitRate    float64            `json:"cache_hit_rate"`
	AvgMs           float64            `json:"avg_ms"`
	P95Ms           float64            `json:"p95_ms"`
	P99Ms           float64            `json:"p99_ms"`
	StageAvgMs      map[string]float64 `json:"stage_avg_ms"`
	Health          string             `json:"health"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// ServiceStats is the combined view returned by AnalysisService.Stats.
type ServiceStats struct {
	StartedAt     time.Time           `json:"started_at"`
	Analyzed      uint64              `json:"analyzed"`
	ByDecision    map[Decision]uint64 `json:"by_decision"`
	ShortCircuits uint64              `json:"short_circuits"`
	Cache         CacheStats          `json:"cache"`
	Store         *StoreStats         `json:"store,omitempty"`
	Performance   PerformanceReport   `json:"performance"`
}

// Pipeline stage names used for per-stage latency accounting.
const (
	StageNormalize = "normalize"
	StageEdgeCase  = "edge_case"
	StageExtract   = "extract"
	StageAggregate = "aggregate"
	StageCache     = "cache"
)

// EngineConfig is the immutable policy snapshot handed to the service at
// construction. Score thresholds are inclusive upper bounds.
type EngineConfig struct {
	Weights          map[SignalKind]float64
	AllowMax         float64
	FlagMax          float64
	ReviewMax        float64
	BatchConcurrency int64
}

// DefaultWeights returns the built-in per-kind weight table.
func DefaultWeights() map[SignalKind]float64 {
	return map[SignalKind]float64{
		KindProfanity:         0.9,
		KindSuspiciousLinks:   0.85,
		KindFakeEngagement:    0.8,
		KindPromotional:       0.75,
		KindRepetitiveContent: 0.7,
		KindCapsAbuse:         0.6,
		KindCharacterPatterns: 0.5,
		KindWordPatterns:      0.5,
		KindSentenceStructure: 0.5,
	}
}

// DefaultEngineConfig returns the stock policy used when no overrides are
// configured.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Weights:          DefaultWeights(),
		AllowMax:         0.2,
		FlagMax:          0.5,
		ReviewMax:        0.7,
		BatchConcurrency: 8,
	}
}

// WeightFor resolves the weight for a signal kind, falling back to the
// default table for kinds the configured map omits.
func (c EngineConfig) WeightFor(kind SignalKind) float64 {
	if w, ok := c.Weights[kind]; ok {
		return w
	}
	if w, ok := DefaultWeights()[kind]; ok {
		return w
	}
	return 0.5
}
