// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlreport

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionRows(t *testing.T) {
	t.Parallel()
	today := xtime.Date{Year: 2026, Month: 10, Day: 19}
	rows := NewSubscriptionRows(
		[]subctlstore.Subscription{
			{
				ID:              "a",
				Name:            "Cloud",
				Amount:          120,
				Period:          period.Yearly,
				Currency:        "USD",
				NextBillingDate: today.AddDays(2),
			},
			{
				ID:              "b",
				Name:            "Gym",
				Amount:          1234.5,
				Period:          period.Monthly,
				Currency:        "XXX",
				NextBillingDate: today.AddDays(30),
			},
		},
		period.Monthly,
		today,
	)
	require.Len(t, rows, 2)
	require.True(t, rows[0].DueSoon)
	require.InDelta(t, 10, rows[0].ViewAmount, 1e-9)
	require.False(t, rows[1].DueSoon)

	if diff := cmp.Diff(
		[]string{"a", "Cloud", "$120.00", "yearly", "$10.00", "USD", "2026-10-21", "*"},
		SubscriptionToTableRow(rows[0]),
	); diff != "" {
		t.Errorf("table row mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(
		[]string{"b", "Gym", "1234.50", "monthly", "1234.50", "XXX", "2026-11-18", "false"},
		SubscriptionToCSVRow(rows[1]),
	); diff != "" {
		t.Errorf("csv row mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "MONTHLY", SubscriptionHeaders(period.Monthly)[4])
	require.Len(t, SubscriptionHeaders(period.Weekly), len(SubscriptionToTableRow(rows[0])))
}

func TestOverviewRowsConverted(t *testing.T) {
	t.Parallel()
	result := aggregate(
		t,
		&fakeRateSource{table: fxrate.NewTable("USD", "2026-10-19", map[string]float64{"EUR": 0.5})},
		[]subctlaggregate.Item{
			{Amount: 5, Period: period.Monthly, Currency: "EUR"},
			{Amount: 10, Period: period.Monthly, Currency: "XXX"},
		},
	)
	rows := OverviewRows(result, false)
	require.Equal(t, [][]string{{"USD", "4.62", "20.00", "240.00"}}, rows)
	require.Equal(t, [][]string{{"USD", "$4.62", "$20.00", "$240.00"}}, OverviewRows(result, true))
	require.Equal(
		t,
		[]string{"1 subscriptions could not be converted to USD and are included unconverted"},
		Advisories(result),
	)
}

func TestOverviewRowsRatesUnavailable(t *testing.T) {
	t.Parallel()
	result := aggregate(
		t,
		&fakeRateSource{err: errors.New("offline")},
		[]subctlaggregate.Item{
			{Amount: 52, Period: period.Yearly, Currency: "GBP"},
			{Amount: 1, Period: period.Weekly, Currency: "EUR"},
			{Amount: 12, Period: "daily", Currency: "EUR"},
		},
	)
	rows := OverviewRows(result, false)
	require.Equal(
		t,
		[][]string{
			{"EUR", "1.23", "5.33", "64.00"},
			{"GBP", "1.00", "4.33", "52.00"},
		},
		rows,
	)
	require.Equal(
		t,
		[]string{
			"exchange rates are unavailable, totals are shown per currency",
			"1 subscriptions have an unknown billing period and are counted once per year",
		},
		Advisories(result),
	)
}

func TestAdvisoriesEmpty(t *testing.T) {
	t.Parallel()
	result := aggregate(
		t,
		&fakeRateSource{},
		[]subctlaggregate.Item{{Amount: 5, Period: period.Monthly, Currency: "USD"}},
	)
	require.Empty(t, Advisories(result))
}

func aggregate(t *testing.T, rateSource subctlaggregate.RateSource, items []subctlaggregate.Item) *subctlaggregate.Result {
	t.Helper()
	engine := subctlaggregate.NewEngine(slog.New(slog.DiscardHandler), rateSource)
	return engine.Aggregate(context.Background(), items, period.Monthly, "USD")
}

type fakeRateSource struct {
	table *fxrate.Table
	err   error
}

func (f *fakeRateSource) GetOrFetch(context.Context, string) (*fxrate.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}
