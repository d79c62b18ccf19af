// Copyright 2026 Peter Edge
//
// All rights reserved.

package currencyapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bufdev/subctl/internal/pkg/httpstatus"
	"github.com/stretchr/testify/require"
)

func TestGetLatest(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Requests use the lowercase identifier.
		if r.URL.Path != "/eur.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"date":"2026-03-01","eur":{"usd":1.08,"jpy":162.5,"eur":1}}`))
	}))
	defer server.Close()

	client := NewClient(ClientWithBaseURL(server.URL + "/"))
	table, err := client.GetLatest(context.Background(), "EUR")
	require.NoError(t, err)
	require.Equal(t, "EUR", table.Base)
	require.Equal(t, "2026-03-01", table.Date)
	require.Equal(t, map[string]float64{"USD": 1.08, "JPY": 162.5}, table.Rates)
}

func TestGetLatestMissingDate(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"usd":{"eur":0.9}}`))
	}))
	defer server.Close()

	now := func() time.Time { return time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC) }
	client := NewClient(ClientWithBaseURL(server.URL), ClientWithNow(now))
	table, err := client.GetLatest(context.Background(), "usd")
	require.NoError(t, err)
	require.Equal(t, "USD", table.Base)
	require.Equal(t, "2026-10-19", table.Date)
}

func TestGetLatestFailures(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "not found", status: http.StatusNotFound, body: "missing"},
		{name: "missing base object", status: http.StatusOK, body: `{"date":"2026-03-01","usd":{"eur":0.9}}`, malformed: true},
		{name: "null base object", status: http.StatusOK, body: `{"gbp":null}`, malformed: true},
		{name: "non-numeric rates", status: http.StatusOK, body: `{"gbp":{"usd":"x"}}`, malformed: true},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			_, err := NewClient(ClientWithBaseURL(server.URL)).GetLatest(context.Background(), "GBP")
			require.Error(t, err)
			require.Equal(t, test.malformed, errors.Is(err, ErrMalformedResponse))
			if test.status != http.StatusOK {
				var statusError *httpstatus.Error
				require.True(t, errors.As(err, &statusError))
				require.Equal(t, test.status, statusError.StatusCode)
			}
		})
	}
}
