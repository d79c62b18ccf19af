// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlmetrics holds the Prometheus metrics for rate fetching,
// rate caching, and aggregation.
//
// A nil *Metrics is valid and records nothing.
package subctlmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const (
	// OutcomeSuccess labels a successful rate fetch.
	OutcomeSuccess = "success"
	// OutcomeFailure labels a failed rate fetch.
	OutcomeFailure = "failure"
	// OutcomeCircuitOpen labels a rate fetch skipped because the source's circuit is open.
	OutcomeCircuitOpen = "circuit_open"

	// CacheResultHit labels a fresh cache entry served without a fetch.
	CacheResultHit = "hit"
	// CacheResultMiss labels a missing, stale, or unreadable cache entry.
	CacheResultMiss = "miss"
)

// Metrics holds the subctl Prometheus metrics.
type Metrics struct {
	// Registry is the registry that owns these metrics, for serving /metrics.
	Registry *prometheus.Registry

	rateFetches      *prometheus.CounterVec
	rateCache        *prometheus.CounterVec
	conversionErrors prometheus.Counter
	aggregations     *prometheus.CounterVec
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	CacheHits        int64 `json:"cache_hits"`
	CacheMisses      int64 `json:"cache_misses"`
	ConversionErrors int64 `json:"conversion_errors"`
}

// NewMetrics creates a private registry and registers the metrics in it.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		rateFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subctl_rate_fetch_total",
				Help: "Rate source fetches by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		rateCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subctl_rate_cache_total",
				Help: "Rate cache lookups by result.",
			},
			[]string{"result"},
		),
		conversionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "subctl_conversion_errors_total",
				Help: "Subscriptions that could not be converted to the reporting currency.",
			},
		),
		aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subctl_aggregations_total",
				Help: "Aggregations by result kind.",
			},
			[]string{"kind"},
		),
	}
}

// IncrRateFetch increments the fetch counter for a source and outcome.
func (m *Metrics) IncrRateFetch(source string, outcome string) {
	if m == nil {
		return
	}
	m.rateFetches.WithLabelValues(source, outcome).Inc()
}

// IncrRateCache increments the cache counter for a result.
func (m *Metrics) IncrRateCache(result string) {
	if m == nil {
		return
	}
	m.rateCache.WithLabelValues(result).Inc()
}

// AddConversionErrors adds n to the conversion error counter.
func (m *Metrics) AddConversionErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.conversionErrors.Add(float64(n))
}

// IncrAggregation increments the aggregation counter for a result kind.
func (m *Metrics) IncrAggregation(kind string) {
	if m == nil {
		return
	}
	m.aggregations.WithLabelValues(kind).Inc()
}

// RateFetches returns the current fetch count for a source and outcome.
func (m *Metrics) RateFetches(source string, outcome string) int64 {
	if m == nil {
		return 0
	}
	return counterValue(m.rateFetches.WithLabelValues(source, outcome))
}

// Aggregations returns the current aggregation count for a result kind.
func (m *Metrics) Aggregations(kind string) int64 {
	if m == nil {
		return 0
	}
	return counterValue(m.aggregations.WithLabelValues(kind))
}

// Snapshot returns the current cache and conversion counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		CacheHits:        counterValue(m.rateCache.WithLabelValues(CacheResultHit)),
		CacheMisses:      counterValue(m.rateCache.WithLabelValues(CacheResultMiss)),
		ConversionErrors: counterValue(m.conversionErrors),
	}
}

// *** PRIVATE ***

func counterValue(counter prometheus.Counter) int64 {
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		return 0
	}
	return int64(metric.GetCounter().GetValue())
}
