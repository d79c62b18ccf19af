// Copyright 2026 Peter Edge
//
// All rights reserved.

package exchangerateapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bufdev/subctl/internal/pkg/httpstatus"
	"github.com/stretchr/testify/require"
)

func TestGetLatest(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Requests use the uppercase code.
		if r.URL.Path != "/USD" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"base":"USD","date":"2026-02-27","time_last_updated":1,"rates":{"USD":1,"EUR":0.92,"jpy":149.8}}`))
	}))
	defer server.Close()

	table, err := NewClient(ClientWithBaseURL(server.URL)).GetLatest(context.Background(), "usd")
	require.NoError(t, err)
	require.Equal(t, "USD", table.Base)
	require.Equal(t, "2026-02-27", table.Date)
	// Keys are upper-cased and the base is removed.
	require.Equal(t, map[string]float64{"EUR": 0.92, "JPY": 149.8}, table.Rates)
}

func TestGetLatestMissingBase(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"date":"2026-02-27","rates":{"EUR":0.92}}`))
	}))
	defer server.Close()

	table, err := NewClient(ClientWithBaseURL(server.URL)).GetLatest(context.Background(), "usd")
	require.NoError(t, err)
	require.Equal(t, "USD", table.Base)
}

func TestGetLatestFailures(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: "down"},
		{name: "empty rates", status: http.StatusOK, body: `{"base":"USD","rates":{}}`, malformed: true},
		{name: "error payload", status: http.StatusOK, body: `{"result":"error","error-type":"unsupported-code"}`, malformed: true},
		{name: "other base", status: http.StatusOK, body: `{"base":"EUR","rates":{"USD":1.08}}`, malformed: true},
		{name: "not json", status: http.StatusOK, body: `nope`},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer server.Close()

			_, err := NewClient(ClientWithBaseURL(server.URL)).GetLatest(context.Background(), "USD")
			require.Error(t, err)
			require.Equal(t, test.malformed, errors.Is(err, ErrMalformedResponse))
			var statusError *httpstatus.Error
			require.Equal(t, test.status != http.StatusOK, errors.As(err, &statusError))
		})
	}
}
