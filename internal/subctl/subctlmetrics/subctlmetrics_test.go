// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlmetrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics()
	metrics.IncrRateFetch("primary", OutcomeFailure)
	metrics.IncrRateFetch("secondary", OutcomeSuccess)
	metrics.IncrRateCache(CacheResultMiss)
	metrics.IncrRateCache(CacheResultHit)
	metrics.IncrRateCache(CacheResultHit)
	metrics.AddConversionErrors(2)
	metrics.AddConversionErrors(0)
	metrics.IncrAggregation("converted")

	require.Equal(t, int64(1), metrics.RateFetches("primary", OutcomeFailure))
	require.Equal(t, int64(0), metrics.RateFetches("primary", OutcomeSuccess))
	require.Equal(t, int64(1), metrics.Aggregations("converted"))
	require.Equal(t, Snapshot{CacheHits: 2, CacheMisses: 1, ConversionErrors: 2}, metrics.Snapshot())

	expected := `
# HELP subctl_conversion_errors_total Subscriptions that could not be converted to the reporting currency.
# TYPE subctl_conversion_errors_total counter
subctl_conversion_errors_total 2
`
	require.NoError(t, testutil.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "subctl_conversion_errors_total"))
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()
	var metrics *Metrics
	metrics.IncrRateFetch("primary", OutcomeSuccess)
	metrics.IncrRateCache(CacheResultHit)
	metrics.AddConversionErrors(1)
	metrics.IncrAggregation("unconverted")
	require.Equal(t, Snapshot{}, metrics.Snapshot())
	require.Equal(t, int64(0), metrics.RateFetches("primary", OutcomeSuccess))
}

func TestNewMetricsTwice(t *testing.T) {
	t.Parallel()
	// Private registries never collide.
	require.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
