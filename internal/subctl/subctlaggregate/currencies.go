// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlaggregate

import "github.com/bufdev/subctl/internal/pkg/period"

// UsedCurrencies returns the distinct currencies of the items in first-seen order.
//
// Codes are upper-cased and empty codes count as DefaultCurrency.
func UsedCurrencies(items []Item) []string {
	seen := make(map[string]struct{})
	var currencies []string
	for _, item := range items {
		currency := itemCurrency(item)
		if _, ok := seen[currency]; ok {
			continue
		}
		seen[currency] = struct{}{}
		currencies = append(currencies, currency)
	}
	return currencies
}

// DetectBaseCurrency returns the most common currency among the items.
//
// Ties go to the currency seen first. With no items, DefaultCurrency is returned.
func DetectBaseCurrency(items []Item) string {
	counts := make(map[string]int)
	for _, item := range items {
		counts[itemCurrency(item)]++
	}
	detected := DefaultCurrency
	best := 0
	for _, currency := range UsedCurrencies(items) {
		if counts[currency] > best {
			detected = currency
			best = counts[currency]
		}
	}
	return detected
}

// PeriodAmount is an amount expressed for one period.
type PeriodAmount struct {
	Period period.Period `json:"period"`
	Amount float64       `json:"amount"`
}

// Breakdown expresses an amount for fromPeriod in every period, in
// weekly, monthly, yearly order.
func Breakdown(amount float64, fromPeriod period.Period) []PeriodAmount {
	all := period.All()
	breakdown := make([]PeriodAmount, 0, len(all))
	for _, p := range all {
		breakdown = append(breakdown, PeriodAmount{
			Period: p,
			Amount: period.Rebase(amount, fromPeriod, p),
		})
	}
	return breakdown
}
