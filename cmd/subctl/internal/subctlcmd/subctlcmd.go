// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package subctlcmd provides shared wiring for subctl commands that need
// the subscription store, the rate pipeline, or the aggregation engine.
package subctlcmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"buf.build/go/app/appext"
	"github.com/bufdev/subctl/internal/pkg/backoff"
	"github.com/bufdev/subctl/internal/pkg/currencyapi"
	"github.com/bufdev/subctl/internal/pkg/exchangerateapi"
	"github.com/bufdev/subctl/internal/pkg/kvstore"
	"github.com/bufdev/subctl/internal/standard/xos"
	"github.com/bufdev/subctl/internal/subctl/subctlaggregate"
	"github.com/bufdev/subctl/internal/subctl/subctlconfig"
	"github.com/bufdev/subctl/internal/subctl/subctlmetrics"
	"github.com/bufdev/subctl/internal/subctl/subctlpath"
	"github.com/bufdev/subctl/internal/subctl/subctlrates"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
)

const (
	// DirFlagName is the flag name for the subctl base directory.
	DirFlagName = "dir"
	// DirFlagUsage is the usage string for the subctl base directory flag.
	DirFlagUsage = "The subctl directory containing subctl.yaml"
)

// Runtime holds the components a command needs, wired from the configuration.
type Runtime struct {
	// DirPath is the expanded base directory.
	DirPath string
	// Config is the runtime configuration.
	Config *subctlconfig.Config
	// Metrics collects counters for this process.
	Metrics *subctlmetrics.Metrics
	// KVStore backs both the subscriptions and the rate cache.
	KVStore kvstore.Store
	// Store holds subscriptions and the reporting currency preference.
	Store *subctlstore.Store
	// Gateway fetches rate tables from the primary and secondary sources.
	Gateway *subctlrates.Gateway
	// Cache fronts the Gateway with a TTL cache.
	Cache *subctlrates.Cache
	// Engine aggregates subscriptions.
	Engine *subctlaggregate.Engine

	close func() error
}

// NewRuntime reads the configuration from dirPath, applies environment
// overrides, and constructs all components.
//
// A missing config file is not an error; defaults are used.
// The caller must call Close when done.
func NewRuntime(ctx context.Context, container appext.Container, dirPath string) (*Runtime, error) {
	config, expandedDirPath, err := ReadConfig(container, dirPath)
	if err != nil {
		return nil, err
	}
	logger := container.Logger()
	kvStore, closeKVStore, err := newKVStore(ctx, config.StorageBackend, expandedDirPath)
	if err != nil {
		return nil, err
	}
	metrics := subctlmetrics.NewMetrics()
	gateway := NewGateway(container, config, metrics)
	cache := subctlrates.NewCache(
		logger,
		kvStore,
		gateway,
		subctlrates.CacheWithTTL(config.CacheTTL),
		subctlrates.CacheWithMetrics(metrics),
	)
	return &Runtime{
		DirPath: expandedDirPath,
		Config:  config,
		Metrics: metrics,
		KVStore: kvStore,
		Store:   subctlstore.NewStore(logger, kvStore),
		Gateway: gateway,
		Cache:   cache,
		Engine:  subctlaggregate.NewEngine(logger, cache, subctlaggregate.EngineWithMetrics(metrics)),
		close:   closeKVStore,
	}, nil
}

// ReportingCurrency returns the reporting currency to use when none is given explicitly.
//
// A stored preference wins. Otherwise the configured currency is used, and
// otherwise the currency detected from the subscriptions.
func (r *Runtime) ReportingCurrency(ctx context.Context) (string, error) {
	if r.Config.ReportingCurrency != "" {
		_, ok, err := r.KVStore.Get(ctx, subctlstore.ReportingCurrencyKey)
		if err != nil {
			return "", err
		}
		if !ok {
			return r.Config.ReportingCurrency, nil
		}
	}
	return r.Store.ReportingCurrency(ctx)
}

// SeedReportingCurrency stores the configured reporting currency if no preference is stored yet.
func (r *Runtime) SeedReportingCurrency(ctx context.Context) error {
	if r.Config.ReportingCurrency == "" {
		return nil
	}
	_, ok, err := r.KVStore.Get(ctx, subctlstore.ReportingCurrencyKey)
	if err != nil || ok {
		return err
	}
	return r.Store.SetReportingCurrency(ctx, r.Config.ReportingCurrency)
}

// Close releases the storage backend.
func (r *Runtime) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// ReadConfig expands dirPath and reads the configuration in it, falling back
// to the defaults if no config file exists. Environment overrides are applied.
//
// Returns the config and the expanded directory path.
func ReadConfig(container appext.Container, dirPath string) (*subctlconfig.Config, string, error) {
	expandedDirPath, err := xos.ExpandPath(dirPath, container.Env)
	if err != nil {
		return nil, "", err
	}
	config, err := subctlconfig.ReadConfigOrDefault(expandedDirPath)
	if err != nil {
		return nil, "", err
	}
	if err := subctlconfig.ApplyEnv(config, container.Env); err != nil {
		return nil, "", err
	}
	return config, expandedDirPath, nil
}

// NewGateway constructs a rate Gateway from the configuration.
func NewGateway(container appext.Container, config *subctlconfig.Config, metrics *subctlmetrics.Metrics) *subctlrates.Gateway {
	// The client timeout is a backstop for the per-attempt context timeout.
	httpClient := &http.Client{Timeout: config.Timeout + time.Second}
	return subctlrates.NewGateway(
		container.Logger(),
		currencyapi.NewClient(
			currencyapi.ClientWithBaseURL(config.PrimaryURL),
			currencyapi.ClientWithHTTPClient(httpClient),
		),
		exchangerateapi.NewClient(
			exchangerateapi.ClientWithBaseURL(config.FallbackURL),
			exchangerateapi.ClientWithHTTPClient(httpClient),
		),
		subctlrates.GatewayWithTimeout(config.Timeout),
		subctlrates.GatewayWithRetryPolicy(
			backoff.Policy{
				MaxAttempts:  config.RetryAttempts,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     5 * time.Second,
			},
		),
		subctlrates.GatewayWithMetrics(metrics),
	)
}

// *** PRIVATE ***

func newKVStore(ctx context.Context, backend subctlconfig.StorageBackend, dirPath string) (kvstore.Store, func() error, error) {
	switch backend {
	case subctlconfig.StorageBackendDir:
		return kvstore.NewDirStore(subctlpath.DataDirPath(dirPath)), nil, nil
	case subctlconfig.StorageBackendSQLite:
		if err := os.MkdirAll(subctlpath.DataDirPath(dirPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		sqliteStore, err := kvstore.NewSQLiteStore(ctx, subctlpath.DatabaseFilePath(dirPath))
		if err != nil {
			return nil, nil, err
		}
		return sqliteStore, sqliteStore.Close, nil
	case subctlconfig.StorageBackendMemory:
		return kvstore.NewMemoryStore(), nil, nil
	case "":
		return nil, nil, errors.New("storage backend is not set")
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", backend)
	}
}
