// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlstore stores subscriptions and the reporting currency
// preference in a key-value store.
//
// All subscriptions are kept as one JSON array under a single key, and the
// preference as a bare uppercase currency code under another.
package subctlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bufdev/subctl/internal/pkg/kvstore"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/google/uuid"
)

const (
	// SubscriptionsKey is the key holding the JSON array of subscriptions.
	SubscriptionsKey = "subctl-data"
	// ReportingCurrencyKey is the key holding the reporting currency preference.
	ReportingCurrencyKey = "baseCurrency"

	// DueSoonDays is how many days ahead a billing date counts as due soon.
	DueSoonDays = 7
)

var (
	// ErrNotFound is returned when no subscription has the given ID.
	ErrNotFound = errors.New("subscription not found")
	// ErrInvalid is returned when a subscription input fails validation.
	ErrInvalid = errors.New("invalid subscription")
)

// Subscription is a recurring payment.
type Subscription struct {
	// ID is assigned on creation and never changes.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Description is optional free text.
	Description string `json:"description"`
	// Amount is charged once per Period, in Currency.
	Amount float64 `json:"amount"`
	// Period is the billing period.
	Period period.Period `json:"period"`
	// Currency is the uppercase currency code.
	Currency string `json:"currency"`
	// NextBillingDate is the date of the next charge.
	NextBillingDate xtime.Date `json:"nextBillingDate"`
	// CreatedAt is set on creation and never changes.
	CreatedAt time.Time `json:"createdAt"`
}

// Item returns the subscription as an aggregation item.
func (s Subscription) Item() subctlaggregate.Item {
	return subctlaggregate.Item{
		Amount:   s.Amount,
		Period:   s.Period,
		Currency: s.Currency,
	}
}

// Items returns the subscriptions as aggregation items.
func Items(subscriptions []Subscription) []subctlaggregate.Item {
	items := make([]subctlaggregate.Item, len(subscriptions))
	for i, subscription := range subscriptions {
		items[i] = subscription.Item()
	}
	return items
}

// DueSoon reports whether the next billing date is today or within DueSoonDays days after today.
func DueSoon(subscription Subscription, today xtime.Date) bool {
	days := subscription.NextBillingDate.DaysSince(today)
	return days >= 0 && days <= DueSoonDays
}

// SubscriptionInput holds the user-editable fields of a Subscription.
type SubscriptionInput struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Amount          float64       `json:"amount"`
	Period          period.Period `json:"period"`
	Currency        string        `json:"currency"`
	NextBillingDate xtime.Date    `json:"nextBillingDate"`
}

// StoreOption is a functional option for configuring the Store.
type StoreOption func(*Store)

// StoreWithNow sets the clock used for CreatedAt.
func StoreWithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// Store reads and writes subscriptions.
//
// Writes are serialized within one Store. Two processes writing the same
// key-value store concurrently may lose updates.
type Store struct {
	logger  *slog.Logger
	kvStore kvstore.Store
	now     func() time.Time
	lock    sync.Mutex
}

// NewStore returns a new Store.
func NewStore(logger *slog.Logger, kvStore kvstore.Store, options ...StoreOption) *Store {
	store := &Store{
		logger:  logger,
		kvStore: kvStore,
		now:     time.Now,
	}
	for _, option := range options {
		option(store)
	}
	return store
}

// List returns all subscriptions in creation order.
func (s *Store) List(ctx context.Context) ([]Subscription, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.load(ctx)
}

// Get returns the subscription with the ID.
func (s *Store) Get(ctx context.Context, id string) (Subscription, error) {
	subscriptions, err := s.List(ctx)
	if err != nil {
		return Subscription{}, err
	}
	for _, subscription := range subscriptions {
		if subscription.ID == id {
			return subscription, nil
		}
	}
	return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create validates the input and adds a new subscription.
func (s *Store) Create(ctx context.Context, input SubscriptionInput) (Subscription, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	subscriptions, err := s.load(ctx)
	if err != nil {
		return Subscription{}, err
	}
	subscription := newSubscription(uuid.NewString(), s.now().UTC(), input)
	if err := s.save(ctx, append(subscriptions, subscription)); err != nil {
		return Subscription{}, err
	}
	s.logger.Debug("created subscription", "id", subscription.ID, "name", subscription.Name)
	return subscription, nil
}

// Update validates the input and replaces the editable fields of the subscription with the ID.
//
// The ID and CreatedAt are kept.
func (s *Store) Update(ctx context.Context, id string, input SubscriptionInput) (Subscription, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	subscriptions, err := s.load(ctx)
	if err != nil {
		return Subscription{}, err
	}
	for i, subscription := range subscriptions {
		if subscription.ID != id {
			continue
		}
		updated := newSubscription(subscription.ID, subscription.CreatedAt, input)
		subscriptions[i] = updated
		if err := s.save(ctx, subscriptions); err != nil {
			return Subscription{}, err
		}
		return updated, nil
	}
	return Subscription{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the subscription with the ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	subscriptions, err := s.load(ctx)
	if err != nil {
		return err
	}
	for i, subscription := range subscriptions {
		if subscription.ID == id {
			return s.save(ctx, append(subscriptions[:i], subscriptions[i+1:]...))
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DeleteAll removes every subscription and the reporting currency preference.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.kvStore.Delete(ctx, SubscriptionsKey); err != nil {
		return err
	}
	return s.kvStore.Delete(ctx, ReportingCurrencyKey)
}

// ReportingCurrency returns the stored preference.
//
// Without a preference, the most common currency among the subscriptions is
// returned, or USD when there are none.
func (s *Store) ReportingCurrency(ctx context.Context) (string, error) {
	value, ok, err := s.kvStore.Get(ctx, ReportingCurrencyKey)
	if err != nil {
		return "", err
	}
	if currency := strings.ToUpper(strings.TrimSpace(value)); ok && currency != "" {
		return currency, nil
	}
	subscriptions, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	return subctlaggregate.DetectBaseCurrency(Items(subscriptions)), nil
}

// SetReportingCurrency stores the reporting currency preference.
func (s *Store) SetReportingCurrency(ctx context.Context, currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return errors.New("currency is required")
	}
	return s.kvStore.Set(ctx, ReportingCurrencyKey, currency)
}

// *** PRIVATE ***

func (s *Store) load(ctx context.Context) ([]Subscription, error) {
	value, ok, err := s.kvStore.Get(ctx, SubscriptionsKey)
	if err != nil {
		return nil, fmt.Errorf("reading subscriptions: %w", err)
	}
	if !ok || value == "" {
		return nil, nil
	}
	var subscriptions []Subscription
	if err := json.Unmarshal([]byte(value), &subscriptions); err != nil {
		return nil, fmt.Errorf("decoding subscriptions: %w", err)
	}
	for i := range subscriptions {
		// Older records may have no currency.
		if subscriptions[i].Currency == "" {
			subscriptions[i].Currency = subctlaggregate.DefaultCurrency
		}
	}
	return subscriptions, nil
}

func (s *Store) save(ctx context.Context, subscriptions []Subscription) error {
	if subscriptions == nil {
		subscriptions = []Subscription{}
	}
	data, err := json.Marshal(subscriptions)
	if err != nil {
		return err
	}
	if err := s.kvStore.Set(ctx, SubscriptionsKey, string(data)); err != nil {
		return fmt.Errorf("writing subscriptions: %w", err)
	}
	return nil
}

func newSubscription(id string, createdAt time.Time, input SubscriptionInput) Subscription {
	return Subscription{
		ID:              id,
		Name:            input.Name,
		Description:     input.Description,
		Amount:          input.Amount,
		Period:          input.Period,
		Currency:        input.Currency,
		NextBillingDate: input.NextBillingDate,
		CreatedAt:       createdAt,
	}
}

func normalizeInput(input SubscriptionInput) (SubscriptionInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.Name == "" {
		return SubscriptionInput{}, errors.New("name is required")
	}
	if input.Amount < 0 || math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) {
		return SubscriptionInput{}, fmt.Errorf("amount must be a non-negative number, got %v", input.Amount)
	}
	parsedPeriod, err := period.ParsePeriod(string(input.Period))
	if err != nil {
		return SubscriptionInput{}, err
	}
	input.Period = parsedPeriod
	if input.Currency == "" {
		return SubscriptionInput{}, errors.New("currency is required")
	}
	if input.NextBillingDate.IsZero() {
		return SubscriptionInput{}, errors.New("next billing date is required")
	}
	if !input.NextBillingDate.IsValid() {
		return SubscriptionInput{}, fmt.Errorf("invalid next billing date %s", input.NextBillingDate)
	}
	return input, nil
}
