// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package currencyapi provides a client for the fawazahmed0 currency-api
// served from the jsDelivr CDN.
//
// The API is free and does not require an API key. Currency identifiers in
// request paths and response keys are lowercase. A request for
// {baseURL}/{base}.json returns an object with a "date" field and a field
// named after the base currency that maps every quote currency to its rate.
//
// See https://github.com/fawazahmed0/exchange-api for details.
package currencyapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/httpstatus"
)

// DefaultBaseURL is the jsDelivr currency-api base URL.
const DefaultBaseURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies"

// ErrMalformedResponse is returned when the response does not contain the
// rate object for the requested base currency.
var ErrMalformedResponse = errors.New("malformed currency-api response")

// Client is the interface for fetching the latest exchange rates.
type Client interface {
	// GetLatest fetches the latest rates for the base currency.
	//
	// Rate keys in the returned table are uppercase.
	GetLatest(ctx context.Context, baseCurrency string) (*fxrate.Table, error)
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// ClientWithBaseURL overrides the API base URL.
func ClientWithBaseURL(baseURL string) ClientOption {
	return func(c *client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// ClientWithNow sets the clock used to date responses that carry no date.
func ClientWithNow(now func() time.Time) ClientOption {
	return func(c *client) {
		c.now = now
	}
}

// NewClient creates a new currency-api client with the given options.
func NewClient(options ...ClientOption) Client {
	c := &client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		now:        time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type client struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

func (c *client) GetLatest(ctx context.Context, baseCurrency string) (*fxrate.Table, error) {
	// The API only understands lowercase identifiers.
	lowerBase := strings.ToLower(baseCurrency)
	reqURL := fmt.Sprintf("%s/%s.json", c.baseURL, lowerBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpstatus.NewError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	rawRates, ok := raw[lowerBase]
	if !ok {
		return nil, fmt.Errorf("%w: no %q object", ErrMalformedResponse, lowerBase)
	}
	var rates map[string]float64
	if err := json.Unmarshal(rawRates, &rates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if rates == nil {
		return nil, fmt.Errorf("%w: %q is null", ErrMalformedResponse, lowerBase)
	}
	return fxrate.NewTable(baseCurrency, c.responseDate(raw), rates), nil
}

// *** PRIVATE ***

// responseDate returns the payload date, or today's UTC date if the payload
// has no usable date.
func (c *client) responseDate(raw map[string]json.RawMessage) string {
	if rawDate, ok := raw["date"]; ok {
		var date string
		if err := json.Unmarshal(rawDate, &date); err == nil {
			if _, err := time.Parse(time.DateOnly, date); err == nil {
				return date
			}
		}
	}
	return c.now().UTC().Format(time.DateOnly)
}
