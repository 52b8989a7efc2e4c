package core

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Short-circuit verdicts carry fixed scores keyed by the recommended action.
// The classifier decides the action; the score encodes how damning that
// action is on the shared 0..1 scale.
const (
	shortCircuitRejectScore = 0.9
	shortCircuitFlagScore   = 0.5
	shortCircuitReviewScore = 0.3
	shortCircuitConfidence  = 0.8
)

// Fallback verdict values used when aggregation itself fails.
const (
	fallbackScore      = 0.5
	fallbackConfidence = 0.1
)

// Aggregator folds extracted signals into a scored verdict. All verdicts in
// the system, including short-circuit and fallback ones, are built here.
type Aggregator struct {
	cfg EngineConfig
}

// NewAggregator returns an aggregator bound to an immutable policy snapshot.
func NewAggregator(cfg EngineConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Build produces the verdict for a full pipeline run. Nil entries in the
// signal list (failed or silent extractors) are skipped; surviving signals
// keep their order and receive their configured weight.
func (a *Aggregator) Build(fp Fingerprint, signals []*Signal) *Verdict {
	kept := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s == nil {
			continue
		}
		sig := *s
		sig.Weight = a.cfg.WeightFor(sig.Kind)
		kept = append(kept, sig)
	}

	score := weightedScore(kept)
	return &Verdict{
		ProcessingID: uuid.New().String(),
		Decision:     a.decisionFor(score),
		Score:        score,
		Confidence:   a.confidence(score, kept),
		Signals:      kept,
		Fingerprint:  fp,
		AnalyzedAt:   time.Now(),
	}
}

// BuildShortCircuit produces the fixed-score verdict for a claimed edge case.
func (a *Aggregator) BuildShortCircuit(fp Fingerprint, outcome EdgeCaseOutcome) *Verdict {
	var score float64
	switch outcome.Action {
	case DecisionReject:
		score = shortCircuitRejectScore
	case DecisionFlag:
		score = shortCircuitFlagScore
	case DecisionUnderReview:
		score = shortCircuitReviewScore
	}

	return &Verdict{
		ProcessingID: uuid.New().String(),
		Decision:     outcome.Action,
		Score:        score,
		Confidence:   shortCircuitConfidence,
		Signals:      []Signal{},
		Fingerprint:  fp,
		AnalyzedAt:   time.Now(),
		Reason:       outcome.Reason,
	}
}

// BuildFallback produces the conservative verdict returned when signal
// aggregation fails. Low confidence marks it for downstream review queues.
func (a *Aggregator) BuildFallback(fp Fingerprint) *Verdict {
	return &Verdict{
		ProcessingID: uuid.New().String(),
		Decision:     DecisionUnderReview,
		Score:        fallbackScore,
		Confidence:   fallbackConfidence,
		Signals:      []Signal{},
		Fingerprint:  fp,
		AnalyzedAt:   time.Now(),
		Reason:       "analysis_failure",
	}
}

// weightedScore is the weighted average of signal confidences. No signals
// means no evidence of risk, which scores zero.
func weightedScore(signals []Signal) float64 {
	if len(signals) == 0 {
		return 0
	}
	var num, den float64
	for _, s := range signals {
		num += s.Confidence * s.Weight
		den += s.Weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// confidence blends three factors: how many independent indicators fired,
// how far the score sits from the ambiguous middle band, and how sure the
// extractors themselves were.
func (a *Aggregator) confidence(score float64, signals []Signal) float64 {
	if len(signals) == 0 {
		return 1.0
	}

	indicator := math.Min(float64(len(signals))/3.0, 1.0)

	scoreFactor := 0.7
	if score < 0.2 || score > 0.8 {
		scoreFactor = 1.0
	}

	var sum float64
	for _, s := range signals {
		sum += s.Confidence
	}
	avg := sum / float64(len(signals))

	return math.Min(indicator*scoreFactor*avg, 1.0)
}

func (a *Aggregator) decisionFor(score float64) Decision {
	switch {
	case score <= a.cfg.AllowMax:
		return DecisionAllow
	case score <= a.cfg.FlagMax:
		return DecisionFlag
	case score <= a.cfg.ReviewMax:
		return DecisionUnderReview
	default:
		return DecisionReject
	}
}
