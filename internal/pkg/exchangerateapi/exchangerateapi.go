// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package exchangerateapi provides a client for the open exchangerate-api.com
// v4 endpoint.
//
// The endpoint is free and does not require an API key. A request for
// {baseURL}/{BASE} returns {"base": "...", "date": "...", "rates": {...}}
// with uppercase currency codes.
package exchangerateapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bufdev/subctl/internal/pkg/fxrate"
	"github.com/bufdev/subctl/internal/pkg/httpstatus"
)

// DefaultBaseURL is the exchangerate-api.com v4 latest-rates URL.
const DefaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// ErrMalformedResponse is returned when the response carries no rates or
// rates for a different base currency.
var ErrMalformedResponse = errors.New("malformed exchangerate-api response")

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

// NewClient creates a new exchangerate-api client with the given options.
func NewClient(options ...ClientOption) Client {
	c := &client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type client struct {
	httpClient *http.Client
	baseURL    string
}

func (c *client) GetLatest(ctx context.Context, baseCurrency string) (*fxrate.Table, error) {
	upperBase := strings.ToUpper(baseCurrency)
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, upperBase)
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
	var latestResp latestResponse
	if err := json.Unmarshal(body, &latestResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(latestResp.Rates) == 0 {
		return nil, fmt.Errorf("%w: no rates", ErrMalformedResponse)
	}
	// An absent payload base is taken to be the requested base.
	if latestResp.Base != "" && !strings.EqualFold(latestResp.Base, upperBase) {
		return nil, fmt.Errorf("%w: requested base %s, got %s", ErrMalformedResponse, upperBase, latestResp.Base)
	}
	return fxrate.NewTable(upperBase, latestResp.Date, latestResp.Rates), nil
}

// *** PRIVATE ***

// latestResponse is the JSON response from the v4 latest endpoint.
type latestResponse struct {
	// Base is the base currency code.
	Base string `json:"base"`
	// Date is the rate date (YYYY-MM-DD).
	Date string `json:"date"`
	// Rates maps currency codes to rates relative to Base.
	Rates map[string]float64 `json:"rates"`
}
