// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlreport converts subscriptions and aggregation results into
// rows for table and CSV output.
package subctlreport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bufdev/subctl/internal/pkg/currencycatalog"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
)

// SubscriptionRow is a subscription as shown in list output.
type SubscriptionRow struct {
	subctlstore.Subscription
	// ViewPeriod is the period ViewAmount is expressed in.
	ViewPeriod period.Period `json:"viewPeriod"`
	// ViewAmount is Amount rebased to ViewPeriod, in Currency.
	ViewAmount float64 `json:"viewAmount"`
	// DueSoon is true if the next billing date is within the next week.
	DueSoon bool `json:"dueSoon"`
}

// NewSubscriptionRows returns a row for each subscription.
func NewSubscriptionRows(subscriptions []subctlstore.Subscription, viewPeriod period.Period, today xtime.Date) []SubscriptionRow {
	rows := make([]SubscriptionRow, len(subscriptions))
	for i, subscription := range subscriptions {
		rows[i] = SubscriptionRow{
			Subscription: subscription,
			ViewPeriod:   viewPeriod,
			ViewAmount:   period.Rebase(subscription.Amount, subscription.Period, viewPeriod),
			DueSoon:      subctlstore.DueSoon(subscription, today),
		}
	}
	return rows
}

// SubscriptionHeaders returns the column headers for subscription rows.
func SubscriptionHeaders(viewPeriod period.Period) []string {
	return []string{
		"ID",
		"NAME",
		"AMOUNT",
		"PERIOD",
		strings.ToUpper(viewPeriod.String()),
		"CURRENCY",
		"NEXT BILLING",
		"DUE SOON",
	}
}

// SubscriptionAmountColumns returns the 1-based column numbers holding amounts.
func SubscriptionAmountColumns() []int {
	return []int{3, 5}
}

// SubscriptionToTableRow returns the row with amounts formatted for display.
func SubscriptionToTableRow(row SubscriptionRow) []string {
	dueSoon := ""
	if row.DueSoon {
		dueSoon = "*"
	}
	return []string{
		row.ID,
		row.Name,
		currencycatalog.Format(row.Amount, row.Currency),
		row.Period.String(),
		currencycatalog.Format(row.ViewAmount, row.Currency),
		row.Currency,
		row.NextBillingDate.String(),
		dueSoon,
	}
}

// SubscriptionToCSVRow returns the row with raw amounts.
func SubscriptionToCSVRow(row SubscriptionRow) []string {
	return []string{
		row.ID,
		row.Name,
		formatFloat(row.Amount),
		row.Period.String(),
		formatFloat(row.ViewAmount),
		row.Currency,
		row.NextBillingDate.String(),
		strconv.FormatBool(row.DueSoon),
	}
}

// OverviewHeaders returns the column headers for overview rows.
func OverviewHeaders() []string {
	return []string{"CURRENCY", "WEEKLY", "MONTHLY", "YEARLY"}
}

// OverviewRows returns one row per total in the result, with the total
// broken down into every period.
//
// A converted result has a single row. An unconverted result has one row per
// currency, sorted by code. If formatted is true, amounts are formatted for display.
func OverviewRows(result *subctlaggregate.Result, formatted bool) [][]string {
	if converted, ok := result.Converted(); ok {
		return [][]string{overviewRow(converted.Currency, converted.Amount, result.Request.Period, formatted)}
	}
	unconverted, _ := result.Unconverted()
	rows := make([][]string, 0, len(unconverted.Totals))
	for _, currency := range unconverted.Currencies() {
		rows = append(rows, overviewRow(currency, unconverted.Totals[currency], result.Request.Period, formatted))
	}
	return rows
}

// Advisories returns human-readable notes about anything that makes the
// result less than a complete conversion.
func Advisories(result *subctlaggregate.Result) []string {
	var advisories []string
	if converted, ok := result.Converted(); ok && converted.ErrorCount > 0 {
		advisories = append(
			advisories,
			fmt.Sprintf("%d subscriptions could not be converted to %s and are included unconverted", converted.ErrorCount, converted.Currency),
		)
	}
	if unconverted, ok := result.Unconverted(); ok && unconverted.RatesUnavailable {
		advisories = append(advisories, "exchange rates are unavailable, totals are shown per currency")
	}
	if result.UnknownPeriodCount > 0 {
		advisories = append(
			advisories,
			fmt.Sprintf("%d subscriptions have an unknown billing period and are counted once per year", result.UnknownPeriodCount),
		)
	}
	return advisories
}

// *** PRIVATE ***

func overviewRow(currency string, amount float64, fromPeriod period.Period, formatted bool) []string {
	row := []string{currency}
	for _, periodAmount := range subctlaggregate.Breakdown(amount, fromPeriod) {
		if formatted {
			row = append(row, currencycatalog.Format(periodAmount.Amount, currency))
		} else {
			row = append(row, formatFloat(periodAmount.Amount))
		}
	}
	return row
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
