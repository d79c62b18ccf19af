// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxrate provides exchange rate tables and currency conversion.
//
// A Table holds the rates for one base currency: 1 unit of Base equals
// Rates[X] units of X. Conversions between two non-base currencies go through
// the base currency.
package fxrate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateNotFound is matched by every RateNotFoundError.
var ErrRateNotFound = errors.New("rate not found")

// Table is an exchange rate table for a single base currency.
//
// Tables are immutable once built. A newer fetch supersedes a Table, it never
// modifies it.
type Table struct {
	// Base is the uppercase base currency code.
	Base string `json:"base"`
	// Date is the rate date in YYYY-MM-DD format.
	Date string `json:"date"`
	// Rates maps uppercase currency codes to the number of units per 1 Base.
	// Rates never contains Base itself.
	Rates map[string]float64 `json:"rates"`
}

// NewTable builds a normalized Table.
//
// The base and all rate keys are upper-cased, any rate for the base itself is
// dropped, and non-positive rates are dropped.
func NewTable(base string, date string, rates map[string]float64) *Table {
	base = strings.ToUpper(base)
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		code = strings.ToUpper(code)
		if code == base || rate <= 0 {
			continue
		}
		normalized[code] = rate
	}
	return &Table{
		Base:  base,
		Date:  date,
		Rates: normalized,
	}
}

// Rate returns the rate for the code.
//
// The base currency always has rate 1.
func (t *Table) Rate(code string) (float64, bool) {
	code = strings.ToUpper(code)
	if code == t.Base {
		return 1, true
	}
	rate, ok := t.Rates[code]
	return rate, ok
}

// RateNotFoundError is returned when a table has no rate for a currency.
type RateNotFoundError struct {
	// Currency is the code that has no rate.
	Currency string
	// Base is the base currency of the table that was searched.
	Base string
}

// Error implements error.
func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("rate not found for %s in %s table", e.Currency, e.Base)
}

// Is matches ErrRateNotFound.
func (e *RateNotFoundError) Is(target error) bool {
	return target == ErrRateNotFound
}

// Convert converts an amount from one currency to another using the table.
//
// Currency codes are case-insensitive. Converting a currency to itself returns
// the amount unchanged without consulting the table.
func Convert(amount float64, fromCurrency string, toCurrency string, table *Table) (float64, error) {
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return amount, nil
	}
	if from == table.Base {
		toRate, ok := table.Rates[to]
		if !ok {
			return 0, &RateNotFoundError{Currency: to, Base: table.Base}
		}
		return amount * toRate, nil
	}
	// Resolve from exactly once, into the base currency.
	fromRate, ok := table.Rates[from]
	if !ok {
		return 0, &RateNotFoundError{Currency: from, Base: table.Base}
	}
	baseAmount := amount / fromRate
	if to == table.Base {
		return baseAmount, nil
	}
	toRate, ok := table.Rates[to]
	if !ok {
		return 0, &RateNotFoundError{Currency: to, Base: table.Base}
	}
	return baseAmount * toRate, nil
}
