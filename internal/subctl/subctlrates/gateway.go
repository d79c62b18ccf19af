// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlrates fetches exchange rate tables from the rate sources and
// caches them in a key-value store.
package subctlrates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bufdev/subctl/internal/pkg/backoff"
	"github.com/bufdev/subctl/internal/pkg/currencyapi"
	"github.com/bufdev/subctl/internal/pkg/exchangerateapi"
	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/httpstatus"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
	"github.com/sony/gobreaker"
)

const (
	// PrimarySourceName names the currency-api source.
	PrimarySourceName = "primary"
	// SecondarySourceName names the exchangerate-api source.
	SecondarySourceName = "secondary"

	// DefaultTimeout bounds a single request to a rate source.
	DefaultTimeout = 10 * time.Second
)

// ErrRatesUnavailable is returned when no rate source produced a table.
var ErrRatesUnavailable = errors.New("exchange rates unavailable")

// Fetcher fetches the latest rate table for a base currency.
type Fetcher interface {
	Fetch(ctx context.Context, baseCurrency string) (*fxrate.Table, error)
}

// SourceResult is the outcome of probing one rate source.
type SourceResult struct {
	// Source is PrimarySourceName or SecondarySourceName.
	Source string
	// Table is set on success.
	Table *fxrate.Table
	// Err is set on failure.
	Err error
	// Duration is how long the source took to answer.
	Duration time.Duration
}

// GatewayOption is a functional option for configuring the Gateway.
type GatewayOption func(*Gateway)

// GatewayWithTimeout sets the per-request timeout for each source.
func GatewayWithTimeout(timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

// GatewayWithRetryPolicy sets the retry policy used for each source.
func GatewayWithRetryPolicy(retryPolicy backoff.Policy) GatewayOption {
	return func(g *Gateway) {
		g.retryPolicy = retryPolicy
	}
}

// GatewayWithMetrics sets the metrics to record fetches to.
func GatewayWithMetrics(metrics *subctlmetrics.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = metrics
	}
}

// Gateway fetches rate tables from the primary source, falling back to the
// secondary source on any primary failure.
//
// Each source sits behind its own circuit breaker. When the primary's breaker
// is open, the gateway goes straight to the secondary.
type Gateway struct {
	logger      *slog.Logger
	metrics     *subctlmetrics.Metrics
	timeout     time.Duration
	retryPolicy backoff.Policy
	primary     *source
	secondary   *source
}

// NewGateway returns a new Gateway over the two rate source clients.
func NewGateway(
	logger *slog.Logger,
	primaryClient currencyapi.Client,
	secondaryClient exchangerateapi.Client,
	options ...GatewayOption,
) *Gateway {
	gateway := &Gateway{
		logger:      logger,
		timeout:     DefaultTimeout,
		retryPolicy: backoff.Policy{MaxAttempts: 1, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second},
		primary:     newSource(PrimarySourceName, primaryClient.GetLatest),
		secondary:   newSource(SecondarySourceName, secondaryClient.GetLatest),
	}
	for _, option := range options {
		option(gateway)
	}
	return gateway
}

// Fetch implements Fetcher.
//
// The secondary source is called at most once per Fetch. If both sources fail,
// the returned error matches ErrRatesUnavailable and wraps both causes.
func (g *Gateway) Fetch(ctx context.Context, baseCurrency string) (*fxrate.Table, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	table, primaryErr := g.fetchFrom(ctx, g.primary, base)
	if primaryErr == nil {
		return table, nil
	}
	g.logger.Warn(
		"primary rate source failed, trying secondary",
		"base", base,
		"error", primaryErr,
	)
	table, secondaryErr := g.fetchFrom(ctx, g.secondary, base)
	if secondaryErr == nil {
		return table, nil
	}
	err := fmt.Errorf("%w for %s: %w", ErrRatesUnavailable, base, errors.Join(primaryErr, secondaryErr))
	g.logger.Error("all rate sources failed", "base", base, "error", err)
	return nil, err
}

// Probe fetches from each source independently, bypassing the circuit breakers.
func (g *Gateway) Probe(ctx context.Context, baseCurrency string) []SourceResult {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	results := make([]SourceResult, 0, 2)
	for _, s := range []*source{g.primary, g.secondary} {
		start := time.Now()
		table, err := g.getLatestWithTimeout(ctx, s, base)
		results = append(results, SourceResult{
			Source:   s.name,
			Table:    table,
			Err:      err,
			Duration: time.Since(start),
		})
	}
	return results
}

// *** PRIVATE ***

type source struct {
	name      string
	getLatest func(ctx context.Context, baseCurrency string) (*fxrate.Table, error)
	breaker   *gobreaker.CircuitBreaker
}

func newSource(
	name string,
	getLatest func(ctx context.Context, baseCurrency string) (*fxrate.Table, error),
) *source {
	return &source{
		name:      name,
		getLatest: getLatest,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (g *Gateway) fetchFrom(ctx context.Context, s *source, base string) (*fxrate.Table, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return backoff.Retry(
			ctx,
			g.retryPolicy,
			httpstatus.IsRetryable,
			func(ctx context.Context) (*fxrate.Table, error) {
				return g.getLatestWithTimeout(ctx, s, base)
			},
		)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.metrics.IncrRateFetch(s.name, subctlmetrics.OutcomeCircuitOpen)
		} else {
			g.metrics.IncrRateFetch(s.name, subctlmetrics.OutcomeFailure)
		}
		return nil, fmt.Errorf("%s rate source: %w", s.name, err)
	}
	g.metrics.IncrRateFetch(s.name, subctlmetrics.OutcomeSuccess)
	return result.(*fxrate.Table), nil
}

func (g *Gateway) getLatestWithTimeout(ctx context.Context, s *source, base string) (*fxrate.Table, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return s.getLatest(ctx, base)
}
