// Copyright 2026 Peter Edge
//
// All rights reserved.

package xtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateStringAndIn(t *testing.T) {
	t.Parallel()
	date := TimeToDate(time.Date(2026, time.August, 20, 15, 8, 43, 1, time.UTC))
	require.Equal(t, Date{2026, 8, 20}, date)
	require.Equal(t, "2026-08-20", date.String())
	require.True(t, date.In(time.UTC).Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "0999-01-26", Date{999, 1, 26}.String())
}

func TestDateIsValid(t *testing.T) {
	t.Parallel()
	for date, want := range map[Date]bool{
		{2024, 2, 29}: true,
		{2025, 2, 29}: false,
		{2026, 1, 31}: true,
		{2026, 1, 32}: false,
		{2026, 13, 1}: false,
		{2026, 0, 1}:  false,
		{2026, 1, 0}:  false,
	} {
		require.Equal(t, want, date.IsValid(), date.String())
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	date, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	require.Equal(t, Date{2026, 3, 15}, date)
	for _, bad := range []string{"", "999-01-26", "2026-03-15x", "2026-02-30", "03/15/2026"} {
		_, err := ParseDate(bad)
		require.Error(t, err, bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name  string
		start Date
		end   Date
		days  int
	}{
		{name: "noop", start: Date{2026, 5, 9}, end: Date{2026, 5, 9}, days: 0},
		{name: "year boundary", start: Date{2025, 12, 31}, end: Date{2026, 1, 1}, days: 1},
		{name: "negative", start: Date{2026, 1, 1}, end: Date{2025, 12, 31}, days: -1},
		{name: "leap year", start: Date{2024, 1, 1}, end: Date{2025, 1, 1}, days: 366},
		{name: "one week", start: Date{2026, 2, 25}, end: Date{2026, 3, 4}, days: 7},
		{name: "before epoch", start: Date{1901, 1, 1}, end: Date{1902, 1, 1}, days: 365},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.end, test.start.AddDays(test.days))
			require.Equal(t, test.days, test.end.DaysSince(test.start))
		})
	}
}

func TestDateCompare(t *testing.T) {
	t.Parallel()
	earlier := Date{2025, 12, 31}
	later := Date{2026, 1, 1}
	require.Equal(t, -1, earlier.Compare(later))
	require.Equal(t, 1, later.Compare(earlier))
	require.Equal(t, 0, later.Compare(later))
	require.True(t, earlier.Before(later))
	require.False(t, later.Before(later))
	require.True(t, later.EqualOrBefore(later))
	require.True(t, later.After(earlier))
	require.False(t, earlier.After(earlier))
	require.True(t, earlier.EqualOrAfter(earlier))
	require.False(t, earlier.EqualOrAfter(later))
}

func TestDateIsZero(t *testing.T) {
	t.Parallel()
	require.True(t, Date{}.IsZero())
	require.False(t, Date{2026, 1, 1}.IsZero())
}

func TestDateJSON(t *testing.T) {
	t.Parallel()
	type wrapper struct {
		Date Date `json:"date"`
	}
	data, err := json.Marshal(wrapper{Date: Date{1987, 4, 15}})
	require.NoError(t, err)
	require.JSONEq(t, `{"date":"1987-04-15"}`, string(data))

	var got wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-10-19"}`), &got))
	require.Equal(t, Date{2026, 10, 19}, got.Date)

	data, err = json.Marshal(wrapper{})
	require.NoError(t, err)
	require.JSONEq(t, `{"date":""}`, string(data))
	got = wrapper{Date: Date{2026, 1, 1}}
	require.NoError(t, json.Unmarshal(data, &got))
	require.True(t, got.Date.IsZero())

	for _, bad := range []string{`"bad"`, `"1987-04-15x"`, `19870415`} {
		var date Date
		require.Error(t, json.Unmarshal([]byte(bad), &date), bad)
	}
}
