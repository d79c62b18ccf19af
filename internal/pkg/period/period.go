// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package period normalizes amounts between billing cadences.
//
// Every cadence is mapped to the number of times it occurs per year, and an
// amount is rebased by annualizing it and dividing by the target cadence's
// occurrences. Unknown cadences count as once per year.
package period

import (
	"fmt"
	"strings"
)

// Period is a billing cadence.
type Period string

const (
	// Weekly is charged 52 times per year.
	Weekly Period = "weekly"
	// Monthly is charged 12 times per year.
	Monthly Period = "monthly"
	// Yearly is charged once per year.
	Yearly Period = "yearly"
)

// All returns the known periods from shortest to longest.
func All() []Period {
	return []Period{Weekly, Monthly, Yearly}
}

// ParsePeriod parses a period name, case-insensitively.
//
// Input boundaries (flags, query parameters, config) use this to reject typos.
// Rebase itself never rejects a period.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Multiplier(p); !ok {
		return "", fmt.Errorf("unknown period %q, must be one of: weekly, monthly, yearly", s)
	}
	return p, nil
}

// Multiplier returns the number of occurrences of p per year.
//
// The second return value is false when p is not a known period, in which
// case the multiplier is 1.
func Multiplier(p Period) (int, bool) {
	switch p {
	case Weekly:
		return 52, true
	case Monthly:
		return 12, true
	case Yearly:
		return 1, true
	default:
		return 1, false
	}
}

// Rebase converts an amount charged every from into the equivalent amount
// charged every to.
func Rebase(amount float64, from Period, to Period) float64 {
	if from == to {
		return amount
	}
	fromMultiplier, _ := Multiplier(from)
	toMultiplier, _ := Multiplier(to)
	yearly := amount * float64(fromMultiplier)
	return yearly / float64(toMultiplier)
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return string(p)
}

// Known reports whether p is one of the known periods.
func (p Period) Known() bool {
	_, ok := Multiplier(p)
	return ok
}
