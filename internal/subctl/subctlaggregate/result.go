// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlaggregate

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/bufdev/subctl/internal/pkg/period"
)

// Kind says which shape a Result has.
type Kind int

const (
	// KindUnconverted is a per-currency breakdown with no conversion applied.
	KindUnconverted Kind = iota + 1
	// KindConverted is a single total in the reporting currency.
	KindConverted
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindUnconverted:
		return "unconverted"
	case KindConverted:
		return "converted"
	default:
		return "unknown"
	}
}

// Request is the view period and reporting currency an aggregation was run for.
type Request struct {
	Period   period.Period `json:"period"`
	Currency string        `json:"currency"`
}

// NewRequest returns a normalized Request.
//
// The currency is upper-cased, and empty means DefaultCurrency.
func NewRequest(targetPeriod period.Period, reportingCurrency string) Request {
	return Request{
		Period:   targetPeriod,
		Currency: normalizeCurrency(reportingCurrency),
	}
}

// Converted is a total in a single currency.
type Converted struct {
	// Currency is the reporting currency.
	Currency string `json:"currency"`
	// Amount is the total for the view period.
	Amount float64 `json:"amount"`
	// ErrorCount is the number of items that had no rate and were added unconverted.
	ErrorCount int `json:"error_count"`
}

// Unconverted is a total per currency.
type Unconverted struct {
	// Totals maps currency codes to the total for the view period.
	Totals map[string]float64 `json:"totals"`
	// RatesUnavailable is set when conversion was needed but no rates could be fetched.
	RatesUnavailable bool `json:"rates_unavailable"`
}

// Currencies returns the currencies in Totals, sorted.
func (u Unconverted) Currencies() []string {
	currencies := make([]string, 0, len(u.Totals))
	for currency := range u.Totals {
		currencies = append(currencies, currency)
	}
	slices.Sort(currencies)
	return currencies
}

// Result is the outcome of an aggregation.
//
// Exactly one of Converted and Unconverted returns true, according to Kind.
type Result struct {
	// Kind is the shape of the result.
	Kind Kind
	// Request is what the result was computed for.
	Request Request
	// ConvertedFromCount is the number of distinct currencies among the items.
	ConvertedFromCount int
	// UnknownPeriodCount is the number of items whose period was not recognized.
	UnknownPeriodCount int

	converted   Converted
	unconverted Unconverted
}

// Converted returns the single-currency total if Kind is KindConverted.
func (r *Result) Converted() (Converted, bool) {
	if r.Kind != KindConverted {
		return Converted{}, false
	}
	return r.converted, true
}

// Unconverted returns the per-currency totals if Kind is KindUnconverted.
func (r *Result) Unconverted() (Unconverted, bool) {
	if r.Kind != KindUnconverted {
		return Unconverted{}, false
	}
	return r.unconverted, true
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	external := externalResult{
		Kind:               r.Kind.String(),
		Request:            r.Request,
		ConvertedFromCount: r.ConvertedFromCount,
		UnknownPeriodCount: r.UnknownPeriodCount,
	}
	if converted, ok := r.Converted(); ok {
		external.Converted = &converted
	}
	if unconverted, ok := r.Unconverted(); ok {
		external.Unconverted = &unconverted
	}
	return json.Marshal(external)
}

// Latest holds the most recent result for the current selection.
//
// Every change of selection and every Clear starts a new generation. A result
// is only accepted by Offer if it was computed for the current selection in
// the current generation, so work started before a change is discarded.
// Latest is safe for concurrent use.
type Latest struct {
	lock       sync.Mutex
	selected   Request
	generation uint64
	result     *Result
}

// Select makes request the current selection and returns the current generation.
//
// If request differs from the previous selection, the held result is dropped
// and a new generation starts.
func (l *Latest) Select(request Request) uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.selected != request {
		l.selected = request
		l.generation++
	}
	if l.result != nil && l.result.Request != request {
		l.result = nil
	}
	return l.generation
}

// Clear drops any held result and starts a new generation, keeping the selection.
//
// Call Clear whenever the data results are computed from changes.
func (l *Latest) Clear() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.result = nil
	l.generation++
}

// Selected returns the current selection.
func (l *Latest) Selected() Request {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.selected
}

// Generation returns the current generation.
func (l *Latest) Generation() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.generation
}

// Offer stores result if it was computed for the current selection and
// generation was captured before the data for result was read.
//
// It returns false if the result is stale and was discarded.
func (l *Latest) Offer(result *Result, generation uint64) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	if result == nil || result.Request != l.selected || generation != l.generation {
		return false
	}
	l.result = result
	return true
}

// Get returns the held result if it matches request.
func (l *Latest) Get(request Request) (*Result, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.result == nil || l.result.Request != request {
		return nil, false
	}
	return l.result, true
}

// *** PRIVATE ***

type externalResult struct {
	Kind               string       `json:"kind"`
	Request            Request      `json:"request"`
	ConvertedFromCount int          `json:"converted_from_count"`
	UnknownPeriodCount int          `json:"unknown_period_count,omitempty"`
	Converted          *Converted   `json:"converted,omitempty"`
	Unconverted        *Unconverted `json:"unconverted,omitempty"`
}
