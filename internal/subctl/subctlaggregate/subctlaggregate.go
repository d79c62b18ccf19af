// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlaggregate sums recurring amounts across currencies and
// billing periods into a total for one view period and reporting currency.
//
// Aggregation never fails. When rates cannot be fetched, amounts are summed
// per currency instead, and when a single currency has no rate, its amount is
// added unconverted and counted.
package subctlaggregate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
)

// DefaultCurrency is used for items with no currency and as the fallback
// reporting currency.
const DefaultCurrency = "USD"

// Item is a recurring amount to aggregate.
type Item struct {
	// Amount is charged once per Period, in Currency.
	Amount float64
	// Period is the billing period.
	Period period.Period
	// Currency is the currency code. Empty means DefaultCurrency.
	Currency string
}

// RateSource returns the rate table for a base currency.
//
// *subctlrates.Cache implements RateSource.
type RateSource interface {
	GetOrFetch(ctx context.Context, baseCurrency string) (*fxrate.Table, error)
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// EngineWithMetrics sets the metrics to record aggregations to.
func EngineWithMetrics(metrics *subctlmetrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// Engine aggregates items into a Result.
type Engine struct {
	logger     *slog.Logger
	rateSource RateSource
	metrics    *subctlmetrics.Metrics
}

// NewEngine returns a new Engine.
func NewEngine(logger *slog.Logger, rateSource RateSource, options ...EngineOption) *Engine {
	engine := &Engine{
		logger:     logger,
		rateSource: rateSource,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Aggregate totals the items for the target period in the reporting currency.
//
// If every item is already in the reporting currency, or there are no items,
// the result is Unconverted with one bucket per currency and no rates are
// fetched. Otherwise the rate table for the reporting currency is fetched
// before any item is converted. If that fetch fails, the result is
// Unconverted with RatesUnavailable set.
func (e *Engine) Aggregate(
	ctx context.Context,
	items []Item,
	targetPeriod period.Period,
	reportingCurrency string,
) *Result {
	request := NewRequest(targetPeriod, reportingCurrency)
	result := e.aggregate(ctx, items, request)
	e.metrics.IncrAggregation(result.Kind.String())
	if converted, ok := result.Converted(); ok {
		e.metrics.AddConversionErrors(converted.ErrorCount)
	}
	return result
}

// *** PRIVATE ***

func (e *Engine) aggregate(ctx context.Context, items []Item, request Request) *Result {
	usedCurrencies := UsedCurrencies(items)
	unknownPeriodCount := countUnknownPeriods(items)
	if unknownPeriodCount > 0 {
		e.logger.Debug("items with unknown periods are treated as yearly", "count", unknownPeriodCount)
	}
	base := &Result{
		Request:            request,
		ConvertedFromCount: len(usedCurrencies),
		UnknownPeriodCount: unknownPeriodCount,
	}
	if len(usedCurrencies) == 0 || (len(usedCurrencies) == 1 && usedCurrencies[0] == request.Currency) {
		return withUnconverted(base, sumByCurrency(items, request.Period), false)
	}
	table, err := e.rateSource.GetOrFetch(ctx, request.Currency)
	if err != nil {
		e.logger.Warn(
			"exchange rates unavailable, totals are not converted",
			"reporting_currency", request.Currency,
			"error", err,
		)
		return withUnconverted(base, sumByCurrency(items, request.Period), true)
	}
	var total float64
	var errorCount int
	for _, item := range items {
		currency := itemCurrency(item)
		rebased := period.Rebase(item.Amount, item.Period, request.Period)
		converted, err := fxrate.Convert(rebased, currency, request.Currency, table)
		if err != nil {
			e.logger.Warn(
				"amount added unconverted",
				"currency", currency,
				"reporting_currency", request.Currency,
				"error", err,
			)
			errorCount++
			total += rebased
			continue
		}
		total += converted
	}
	base.Kind = KindConverted
	base.converted = Converted{
		Currency:   request.Currency,
		Amount:     total,
		ErrorCount: errorCount,
	}
	return base
}

func withUnconverted(result *Result, totals map[string]float64, ratesUnavailable bool) *Result {
	result.Kind = KindUnconverted
	result.unconverted = Unconverted{
		Totals:           totals,
		RatesUnavailable: ratesUnavailable,
	}
	return result
}

func sumByCurrency(items []Item, targetPeriod period.Period) map[string]float64 {
	totals := make(map[string]float64)
	for _, item := range items {
		totals[itemCurrency(item)] += period.Rebase(item.Amount, item.Period, targetPeriod)
	}
	return totals
}

func countUnknownPeriods(items []Item) int {
	var count int
	for _, item := range items {
		if _, ok := period.Multiplier(item.Period); !ok {
			count++
		}
	}
	return count
}

func itemCurrency(item Item) string {
	return normalizeCurrency(item.Currency)
}

func normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}
