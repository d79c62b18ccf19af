// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlaggregate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var usdTable = fxrate.NewTable("USD", "2026-10-19", map[string]float64{"EUR": 0.9, "JPY": 150})

func TestAggregateSingleCurrencyNoConversion(t *testing.T) {
	t.Parallel()
	rates := &fakeRateSource{table: usdTable}
	engine := newTestEngine(rates)

	result := engine.Aggregate(
		context.Background(),
		[]Item{{Amount: 10, Period: period.Monthly, Currency: "USD"}},
		period.Yearly,
		"USD",
	)
	require.Equal(t, KindUnconverted, result.Kind)
	_, ok := result.Converted()
	require.False(t, ok)
	unconverted, ok := result.Unconverted()
	require.True(t, ok)
	require.Equal(t, map[string]float64{"USD": 120}, unconverted.Totals)
	require.False(t, unconverted.RatesUnavailable)
	require.Equal(t, 0, rates.calls)
	require.Equal(t, NewRequest(period.Yearly, "usd"), result.Request)
}

func TestAggregateNoItems(t *testing.T) {
	t.Parallel()
	rates := &fakeRateSource{table: usdTable}
	result := newTestEngine(rates).Aggregate(context.Background(), nil, period.Monthly, "EUR")
	unconverted, ok := result.Unconverted()
	require.True(t, ok)
	require.Empty(t, unconverted.Totals)
	require.Equal(t, 0, result.ConvertedFromCount)
	require.Equal(t, 0, rates.calls)
}

func TestAggregateConverted(t *testing.T) {
	t.Parallel()
	rates := &fakeRateSource{table: usdTable}
	metrics := subctlmetrics.NewMetrics()
	engine := newTestEngine(rates, EngineWithMetrics(metrics))

	result := engine.Aggregate(
		context.Background(),
		[]Item{
			{Amount: 9, Period: period.Monthly, Currency: "eur"},
			{Amount: 1500, Period: period.Yearly, Currency: "JPY"},
			{Amount: 5, Period: period.Monthly, Currency: ""},
		},
		period.Monthly,
		"usd",
	)
	converted, ok := result.Converted()
	require.True(t, ok)
	require.Equal(t, "USD", converted.Currency)
	// 9 EUR = 10 USD, 1500 JPY/yr = 10 USD/yr = 10/12 USD/mo, 5 USD.
	require.InDelta(t, 10+10.0/12+5, converted.Amount, 1e-9)
	require.Equal(t, 0, converted.ErrorCount)
	require.Equal(t, 3, result.ConvertedFromCount)
	require.Equal(t, []string{"USD"}, rates.bases)
	require.Equal(t, int64(1), metrics.Aggregations(KindConverted.String()))
}

func TestAggregateSingleForeignCurrencyConverts(t *testing.T) {
	t.Parallel()
	rates := &fakeRateSource{table: usdTable}
	result := newTestEngine(rates).Aggregate(
		context.Background(),
		[]Item{{Amount: 90, Period: period.Monthly, Currency: "EUR"}},
		period.Monthly,
		"USD",
	)
	converted, ok := result.Converted()
	require.True(t, ok)
	require.InDelta(t, 100, converted.Amount, 1e-9)
	require.Equal(t, 1, rates.calls)
}

func TestAggregateMissingRateCountedAndAddedUnconverted(t *testing.T) {
	t.Parallel()
	metrics := subctlmetrics.NewMetrics()
	engine := newTestEngine(&fakeRateSource{table: usdTable}, EngineWithMetrics(metrics))

	for _, targetPeriod := range period.All() {
		result := engine.Aggregate(
			context.Background(),
			[]Item{
				{Amount: 10, Period: period.Monthly, Currency: "USD"},
				{Amount: 10, Period: period.Monthly, Currency: "XXX"},
			},
			targetPeriod,
			"USD",
		)
		converted, ok := result.Converted()
		require.True(t, ok)
		require.Equal(t, 1, converted.ErrorCount)
		want := period.Rebase(10, period.Monthly, targetPeriod) + period.Rebase(10, period.Monthly, targetPeriod)
		require.InDelta(t, want, converted.Amount, 1e-9)
	}
	require.Equal(t, int64(3), metrics.Snapshot().ConversionErrors)
}

func TestAggregateRatesUnavailable(t *testing.T) {
	t.Parallel()
	rates := &fakeRateSource{err: errors.New("rates unavailable")}
	result := newTestEngine(rates).Aggregate(
		context.Background(),
		[]Item{
			{Amount: 10, Period: period.Weekly, Currency: "EUR"},
			{Amount: 20, Period: period.Yearly, Currency: "EUR"},
			{Amount: 12, Period: period.Yearly, Currency: "GBP"},
		},
		period.Yearly,
		"USD",
	)
	unconverted, ok := result.Unconverted()
	require.True(t, ok)
	require.True(t, unconverted.RatesUnavailable)
	if diff := cmp.Diff(map[string]float64{"EUR": 540, "GBP": 12}, unconverted.Totals); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"EUR", "GBP"}, unconverted.Currencies())
}

func TestAggregateUnknownPeriodIsObservable(t *testing.T) {
	t.Parallel()
	result := newTestEngine(&fakeRateSource{}).Aggregate(
		context.Background(),
		[]Item{
			{Amount: 12, Period: "daily", Currency: "USD"},
			{Amount: 1, Period: period.Monthly, Currency: "USD"},
		},
		period.Monthly,
		"USD",
	)
	require.Equal(t, 1, result.UnknownPeriodCount)
	unconverted, ok := result.Unconverted()
	require.True(t, ok)
	// The unknown period counts as one charge per year.
	require.InDelta(t, 2, unconverted.Totals["USD"], 1e-9)
}

func TestResultMarshalJSON(t *testing.T) {
	t.Parallel()
	result := newTestEngine(&fakeRateSource{table: usdTable}).Aggregate(
		context.Background(),
		[]Item{{Amount: 90, Period: period.Monthly, Currency: "EUR"}},
		period.Monthly,
		"USD",
	)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, "converted", decoded["kind"])
	require.Equal(t, map[string]any{"period": "monthly", "currency": "USD"}, decoded["request"])
	require.NotContains(t, decoded, "unconverted")
	require.Contains(t, decoded, "converted")
}

func TestLatestDiscardsStaleResults(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(&fakeRateSource{table: usdTable})
	items := []Item{{Amount: 90, Period: period.Monthly, Currency: "EUR"}}
	var latest Latest

	generation := latest.Select(NewRequest(period.Monthly, "USD"))
	stale := engine.Aggregate(context.Background(), items, period.Monthly, "USD")
	// The selection changes before the first result arrives.
	generation = latest.Select(NewRequest(period.Monthly, "EUR"))
	require.False(t, latest.Offer(stale, generation))
	_, ok := latest.Get(NewRequest(period.Monthly, "EUR"))
	require.False(t, ok)

	current := engine.Aggregate(context.Background(), items, period.Monthly, "eur")
	require.True(t, latest.Offer(current, generation))
	got, ok := latest.Get(NewRequest(period.Monthly, "EUR"))
	require.True(t, ok)
	require.Same(t, current, got)

	generation = latest.Select(NewRequest(period.Yearly, "EUR"))
	_, ok = latest.Get(NewRequest(period.Monthly, "EUR"))
	require.False(t, ok)
	require.False(t, latest.Offer(nil, generation))

	require.True(t, latest.Offer(engine.Aggregate(context.Background(), items, period.Yearly, "EUR"), generation))
	latest.Clear()
	_, ok = latest.Get(NewRequest(period.Yearly, "EUR"))
	require.False(t, ok)
	require.Equal(t, NewRequest(period.Yearly, "EUR"), latest.Selected())
}

func TestLatestDiscardsResultsFromBeforeClear(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(&fakeRateSource{table: usdTable})
	request := NewRequest(period.Monthly, "USD")
	var latest Latest

	generation := latest.Select(request)
	// Selecting the same request again keeps the generation.
	require.Equal(t, generation, latest.Select(request))
	require.Equal(t, generation, latest.Generation())

	// The result was computed from data read before the data changed.
	before := engine.Aggregate(
		context.Background(),
		[]Item{{Amount: 90, Period: period.Monthly, Currency: "EUR"}},
		period.Monthly,
		"USD",
	)
	latest.Clear()
	require.False(t, latest.Offer(before, generation))
	_, ok := latest.Get(request)
	require.False(t, ok)

	generation = latest.Generation()
	after := engine.Aggregate(
		context.Background(),
		[]Item{
			{Amount: 90, Period: period.Monthly, Currency: "EUR"},
			{Amount: 90, Period: period.Monthly, Currency: "EUR"},
		},
		period.Monthly,
		"USD",
	)
	require.True(t, latest.Offer(after, generation))
	got, ok := latest.Get(request)
	require.True(t, ok)
	require.Same(t, after, got)
}

func TestUsedCurrencies(t *testing.T) {
	t.Parallel()
	items := []Item{
		{Currency: "eur"},
		{Currency: ""},
		{Currency: "EUR"},
		{Currency: "JPY"},
		{Currency: "USD"},
	}
	require.Equal(t, []string{"EUR", "USD", "JPY"}, UsedCurrencies(items))
	require.Empty(t, UsedCurrencies(nil))
}

func TestDetectBaseCurrency(t *testing.T) {
	t.Parallel()
	require.Equal(t, "USD", DetectBaseCurrency(nil))
	require.Equal(t, "EUR", DetectBaseCurrency([]Item{{Currency: "USD"}, {Currency: "EUR"}, {Currency: "eur"}}))
	// Ties go to the first seen.
	require.Equal(t, "GBP", DetectBaseCurrency([]Item{{Currency: "GBP"}, {Currency: "EUR"}}))
	require.Equal(t, "USD", DetectBaseCurrency([]Item{{}}))
}

func TestBreakdown(t *testing.T) {
	t.Parallel()
	breakdown := Breakdown(12, period.Monthly)
	require.Len(t, breakdown, 3)
	require.Equal(t, period.Weekly, breakdown[0].Period)
	require.InDelta(t, 12.0*12/52, breakdown[0].Amount, 1e-9)
	require.Equal(t, PeriodAmount{Period: period.Monthly, Amount: 12}, breakdown[1])
	require.Equal(t, PeriodAmount{Period: period.Yearly, Amount: 144}, breakdown[2])
}

type fakeRateSource struct {
	table *fxrate.Table
	err   error
	calls int
	bases []string
}

func (f *fakeRateSource) GetOrFetch(_ context.Context, baseCurrency string) (*fxrate.Table, error) {
	f.calls++
	f.bases = append(f.bases, baseCurrency)
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func newTestEngine(rateSource RateSource, options ...EngineOption) *Engine {
	return NewEngine(slog.New(slog.DiscardHandler), rateSource, options...)
}
