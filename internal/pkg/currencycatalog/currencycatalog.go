// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package currencycatalog provides the static table of popular currencies.
//
// The table maps currency codes to a display symbol and name. Codes outside
// the table are never an error: every lookup that expects a symbol or name
// degrades to the code itself.
package currencycatalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Entry is a single catalog currency.
type Entry struct {
	// Code is the uppercase ISO-4217 code (e.g., "USD").
	Code string `json:"code"`
	// Symbol is the display symbol (e.g., "$").
	Symbol string `json:"symbol"`
	// Name is the display name (e.g., "US Dollar").
	Name string `json:"name"`
}

// Option is a single entry in a currency selection list.
type Option struct {
	// Code is the currency code.
	Code string `json:"code"`
	// Label is the display label, "CODE (symbol)" for catalog entries and the
	// bare code otherwise.
	Label string `json:"label"`
	// InCatalog is true if the code is a catalog entry.
	InCatalog bool `json:"in_catalog"`
}

// Entries returns the catalog in order of global prominence.
//
// The order only matters for default selection lists.
func Entries() []Entry {
	return append([]Entry(nil), entries...)
}

// Lookup returns the catalog entry for the code.
//
// The second return value is false if the code is not in the catalog.
// Lookups are exact on the uppercase code.
func Lookup(code string) (Entry, bool) {
	entry, ok := entriesByCode[code]
	return entry, ok
}

// FindSymbol returns the symbol for the code, or the code itself if the code
// is not in the catalog.
func FindSymbol(code string) string {
	if entry, ok := Lookup(code); ok {
		return entry.Symbol
	}
	return code
}

// FindName returns the name for the code, or the code itself if the code is
// not in the catalog.
func FindName(code string) string {
	if entry, ok := Lookup(code); ok {
		return entry.Name
	}
	return code
}

// FormatOption returns the "CODE (symbol)" label for an entry.
func FormatOption(entry Entry) string {
	return fmt.Sprintf("%s (%s)", entry.Code, entry.Symbol)
}

// Options returns the selection list for the given used codes: the union of
// the used codes and the catalog codes, sorted by code.
func Options(usedCodes ...string) []Option {
	seen := make(map[string]struct{}, len(entries)+len(usedCodes))
	var codes []string
	add := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	for _, code := range usedCodes {
		add(strings.ToUpper(code))
	}
	for _, entry := range entries {
		add(entry.Code)
	}
	sort.Strings(codes)
	options := make([]Option, 0, len(codes))
	for _, code := range codes {
		entry, ok := Lookup(code)
		label := code
		if ok {
			label = FormatOption(entry)
		}
		options = append(options, Option{
			Code:      code,
			Label:     label,
			InCatalog: ok,
		})
	}
	return options
}

// IsISOCode reports whether the code is a recognized ISO-4217 currency code.
//
// This is advisory only. Unrecognized codes are still accepted everywhere.
func IsISOCode(code string) bool {
	_, err := currency.ParseISO(strings.ToUpper(code))
	return err == nil
}

// Format renders an amount with the currency symbol.
//
// Catalog currencies are prefixed with their symbol, other codes are prefixed
// with the code and a space. The number of decimals follows the currency's
// standard rounding (two for most currencies, none for JPY).
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	formatted := printer.Sprint(
		number.Decimal(
			amount,
			number.MinFractionDigits(fractionDigits(code)),
			number.MaxFractionDigits(fractionDigits(code)),
		),
	)
	if entry, ok := Lookup(code); ok {
		return entry.Symbol + formatted
	}
	return code + " " + formatted
}

// *** PRIVATE ***

var entries = []Entry{
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan"},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
	{Code: "CHF", Symbol: "Fr", Name: "Swiss Franc"},
	{Code: "KRW", Symbol: "₩", Name: "South Korean Won"},
	{Code: "HKD", Symbol: "HK$", Name: "Hong Kong Dollar"},
	{Code: "SGD", Symbol: "S$", Name: "Singapore Dollar"},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "BRL", Symbol: "R$", Name: "Brazilian Real"},
	{Code: "MXN", Symbol: "$", Name: "Mexican Peso"},
	{Code: "ZAR", Symbol: "R", Name: "South African Rand"},
	{Code: "TRY", Symbol: "₺", Name: "Turkish Lira"},
	{Code: "SEK", Symbol: "kr", Name: "Swedish Krona"},
	{Code: "NOK", Symbol: "kr", Name: "Norwegian Krone"},
	{Code: "DKK", Symbol: "kr", Name: "Danish Krone"},
	{Code: "NZD", Symbol: "NZ$", Name: "New Zealand Dollar"},
}

var entriesByCode = func() map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		m[entry.Code] = entry
	}
	return m
}()

// printer formats numbers with English grouping regardless of the currency.
var printer = message.NewPrinter(language.English)

// fractionDigits returns the standard number of decimals for the code,
// defaulting to two for codes x/text does not recognize.
func fractionDigits(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}
