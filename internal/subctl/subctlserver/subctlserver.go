// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlserver serves subscriptions, preferences, and spending
// overviews over HTTP.
package subctlserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bufdev/subctl/internal/pkg/currencycatalog"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes limits request bodies.
const maxBodyBytes = 1 << 20

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// ServerWithViewPeriod sets the period used when a request names none.
func ServerWithViewPeriod(viewPeriod period.Period) ServerOption {
	return func(s *Server) {
		s.viewPeriod = viewPeriod
	}
}

// ServerWithMetrics sets the metrics served at /metrics and /v1/stats.
func ServerWithMetrics(metrics *subctlmetrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// ServerWithNow sets the clock used for due-soon flags.
func ServerWithNow(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// Server holds the HTTP handlers.
//
// Changing the reporting currency starts an aggregation for the new selection
// in the background. Overviews use that result when it matches the request,
// and results for a superseded selection are dropped.
type Server struct {
	logger     *slog.Logger
	store      *subctlstore.Store
	engine     *subctlaggregate.Engine
	metrics    *subctlmetrics.Metrics
	viewPeriod period.Period
	now        func() time.Time
	latest     subctlaggregate.Latest
	background sync.WaitGroup
	baseCtx    context.Context
	cancel     context.CancelFunc
}

// NewServer returns a new Server.
//
// The caller must call Close when done.
func NewServer(
	logger *slog.Logger,
	store *subctlstore.Store,
	engine *subctlaggregate.Engine,
	options ...ServerOption,
) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	server := &Server{
		logger:     logger,
		store:      store,
		engine:     engine,
		viewPeriod: period.Monthly,
		now:        time.Now,
		baseCtx:    baseCtx,
		cancel:     cancel,
	}
	for _, option := range options {
		option(server)
	}
	return server
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/overview", s.getOverview)
		r.Get("/subscriptions", s.listSubscriptions)
		r.Post("/subscriptions", s.createSubscription)
		r.Get("/subscriptions/{id}", s.getSubscription)
		r.Put("/subscriptions/{id}", s.updateSubscription)
		r.Delete("/subscriptions/{id}", s.deleteSubscription)
		r.Get("/preferences/reporting-currency", s.getReportingCurrency)
		r.Put("/preferences/reporting-currency", s.putReportingCurrency)
		r.Get("/currencies", s.listCurrencies)
		r.Get("/stats", s.getStats)
	})
	return r
}

// Wait blocks until background aggregations finish.
func (s *Server) Wait() {
	s.background.Wait()
}

// Close cancels background aggregations and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.background.Wait()
}

// *** PRIVATE ***

type overviewResponse struct {
	Result            *subctlaggregate.Result        `json:"result"`
	Breakdown         []subctlaggregate.PeriodAmount `json:"breakdown,omitempty"`
	SubscriptionCount int                            `json:"subscription_count"`
	Formatted         map[string]string              `json:"formatted"`
}

type subscriptionResponse struct {
	subctlstore.Subscription
	DueSoon bool `json:"dueSoon"`
}

type currencyResponse struct {
	Currency string `json:"currency"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewPeriod := s.viewPeriod
	if value := r.URL.Query().Get("period"); value != "" {
		parsed, err := period.ParsePeriod(value)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		viewPeriod = parsed
	}
	currency := r.URL.Query().Get("currency")
	if currency == "" {
		stored, err := s.store.ReportingCurrency(ctx)
		if err != nil {
			s.writeInternalError(w, err)
			return
		}
		currency = stored
	}
	request := subctlaggregate.NewRequest(viewPeriod, currency)
	// The generation is captured before the subscriptions are read.
	generation := s.latest.Select(request)
	subscriptions, err := s.store.List(ctx)
	if err != nil {
		s.writeInternalError(w, err)
		return
	}
	result, ok := s.latest.Get(request)
	if !ok {
		result = s.engine.Aggregate(ctx, subctlstore.Items(subscriptions), request.Period, request.Currency)
		s.latest.Offer(result, generation)
	}
	writeJSON(w, http.StatusOK, newOverviewResponse(result, len(subscriptions)))
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subscriptions, err := s.store.List(r.Context())
	if err != nil {
		s.writeInternalError(w, err)
		return
	}
	today := xtime.TimeToDate(s.now())
	responses := make([]subscriptionResponse, len(subscriptions))
	for i, subscription := range subscriptions {
		responses[i] = subscriptionResponse{
			Subscription: subscription,
			DueSoon:      subctlstore.DueSoon(subscription, today),
		}
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	subscription, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		Subscription: subscription,
		DueSoon:      subctlstore.DueSoon(subscription, xtime.TimeToDate(s.now())),
	})
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var input subctlstore.SubscriptionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subscription, err := s.store.Create(r.Context(), input)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.latest.Clear()
	writeJSON(w, http.StatusCreated, subscription)
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var input subctlstore.SubscriptionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	subscription, err := s.store.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.latest.Clear()
	writeJSON(w, http.StatusOK, subscription)
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.latest.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getReportingCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.store.ReportingCurrency(r.Context())
	if err != nil {
		s.writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, currencyResponse{Currency: currency})
}

func (s *Server) putReportingCurrency(w http.ResponseWriter, r *http.Request) {
	var body currencyResponse
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(body.Currency))
	if currency == "" {
		writeError(w, http.StatusBadRequest, errors.New("currency is required"))
		return
	}
	if err := s.store.SetReportingCurrency(r.Context(), currency); err != nil {
		s.writeInternalError(w, err)
		return
	}
	viewPeriod := s.latest.Selected().Period
	if viewPeriod == "" {
		viewPeriod = s.viewPeriod
	}
	request := subctlaggregate.NewRequest(viewPeriod, currency)
	s.aggregateInBackground(request, s.latest.Select(request))
	writeJSON(w, http.StatusAccepted, currencyResponse{Currency: currency})
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	subscriptions, err := s.store.List(r.Context())
	if err != nil {
		s.writeInternalError(w, err)
		return
	}
	usedCodes := subctlaggregate.UsedCurrencies(subctlstore.Items(subscriptions))
	writeJSON(w, http.StatusOK, currencycatalog.Options(usedCodes...))
}

func (s *Server) getStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// aggregateInBackground computes the result for request and offers it at generation.
//
// generation must be captured before the subscriptions are read, so a
// mutation during the aggregation causes the result to be discarded.
func (s *Server) aggregateInBackground(request subctlaggregate.Request, generation uint64) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		subscriptions, err := s.store.List(s.baseCtx)
		if err != nil {
			s.logger.Error("background aggregation failed", "error", err)
			return
		}
		result := s.engine.Aggregate(s.baseCtx, subctlstore.Items(subscriptions), request.Period, request.Currency)
		if !s.latest.Offer(result, generation) {
			s.logger.Debug(
				"discarded stale aggregation",
				"period", request.Period,
				"currency", request.Currency,
			)
		}
	}()
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subctlstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, subctlstore.ErrInvalid):
		writeError(w, http.StatusBadRequest, err)
	default:
		s.writeInternalError(w, err)
	}
}

func (s *Server) writeInternalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		s.logger.Debug(
			"handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func newOverviewResponse(result *subctlaggregate.Result, subscriptionCount int) overviewResponse {
	response := overviewResponse{
		Result:            result,
		SubscriptionCount: subscriptionCount,
		Formatted:         make(map[string]string),
	}
	if converted, ok := result.Converted(); ok {
		response.Breakdown = subctlaggregate.Breakdown(converted.Amount, result.Request.Period)
		response.Formatted[converted.Currency] = currencycatalog.Format(converted.Amount, converted.Currency)
	}
	if unconverted, ok := result.Unconverted(); ok {
		for currency, amount := range unconverted.Totals {
			response.Formatted[currency] = currencycatalog.Format(amount, currency)
		}
		if len(unconverted.Totals) == 1 {
			for _, amount := range unconverted.Totals {
				response.Breakdown = subctlaggregate.Breakdown(amount, result.Request.Period)
			}
		}
	}
	return response
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
