package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskfilter_verdicts",
	Help: "Number of verdicts produced, by decision",
}, []string{"decision"})

var cacheEventCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskfilter_cache_events",
	Help: "Number of result cache lookups, by outcome",
}, []string{"outcome"})

var extractorFailureCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskfilter_extractor_failures",
	Help: "Number of extractor failures survived, by signal kind",
}, []string{"kind"})

var shortCircuitCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "riskfilter_short_circuits",
	Help: "Number of edge-case short circuits, by reason",
}, []string{"reason"})

var analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "riskfilter_analysis_duration_sec",
	Help: "Total duration of content analysis",
})
