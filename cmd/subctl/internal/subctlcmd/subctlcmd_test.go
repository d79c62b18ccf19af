// Copyright 2026 Peter Edge
//
// All rights reserved.

package subctlcmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bufdev/subctl/internal/pkg/kvstore"
	"github.com/bufdev/subctl/internal/pkg/period"
	"github.com/bufdev/subctl/internal/standard/xtime"
	"github.com/bufdev/subctl/internal/subctl/subctlconfig"
	"github.com/bufdev/subctl/internal/subctl/subctlpath"
	"github.com/bufdev/subctl/internal/subctl/subctlstore"
	"github.com/stretchr/testify/require"
)

func TestReportingCurrencyPrecedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Without configuration, the currency is detected from the subscriptions.
	runtime := newTestRuntime("")
	createSubscription(t, runtime, "EUR")
	currency, err := runtime.ReportingCurrency(ctx)
	require.NoError(t, err)
	require.Equal(t, "EUR", currency)

	// The configured currency wins over detection.
	runtime = newTestRuntime("GBP")
	createSubscription(t, runtime, "EUR")
	currency, err = runtime.ReportingCurrency(ctx)
	require.NoError(t, err)
	require.Equal(t, "GBP", currency)

	// A stored preference wins over the configured currency.
	require.NoError(t, runtime.Store.SetReportingCurrency(ctx, "JPY"))
	currency, err = runtime.ReportingCurrency(ctx)
	require.NoError(t, err)
	require.Equal(t, "JPY", currency)
}

func TestSeedReportingCurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	runtime := newTestRuntime("")
	require.NoError(t, runtime.SeedReportingCurrency(ctx))
	_, ok, err := runtime.KVStore.Get(ctx, subctlstore.ReportingCurrencyKey)
	require.NoError(t, err)
	require.False(t, ok)

	runtime = newTestRuntime("CAD")
	require.NoError(t, runtime.SeedReportingCurrency(ctx))
	currency, err := runtime.Store.ReportingCurrency(ctx)
	require.NoError(t, err)
	require.Equal(t, "CAD", currency)

	// An existing preference is kept.
	require.NoError(t, runtime.Store.SetReportingCurrency(ctx, "CHF"))
	require.NoError(t, runtime.SeedReportingCurrency(ctx))
	currency, err = runtime.Store.ReportingCurrency(ctx)
	require.NoError(t, err)
	require.Equal(t, "CHF", currency)
}

func TestNewKVStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dirPath := t.TempDir()

	dirStore, closeDirStore, err := newKVStore(ctx, subctlconfig.StorageBackendDir, dirPath)
	require.NoError(t, err)
	require.Nil(t, closeDirStore)
	require.NoError(t, dirStore.Set(ctx, "key", "value"))
	_, err = os.Stat(filepath.Join(subctlpath.DataDirPath(dirPath), "key.json"))
	require.NoError(t, err)

	sqliteStore, closeSQLiteStore, err := newKVStore(ctx, subctlconfig.StorageBackendSQLite, dirPath)
	require.NoError(t, err)
	require.NotNil(t, closeSQLiteStore)
	require.NoError(t, sqliteStore.Set(ctx, "key", "value"))
	require.NoError(t, closeSQLiteStore())
	_, err = os.Stat(subctlpath.DatabaseFilePath(dirPath))
	require.NoError(t, err)

	memoryStore, _, err := newKVStore(ctx, subctlconfig.StorageBackendMemory, dirPath)
	require.NoError(t, err)
	_, ok, err := memoryStore.Get(ctx, "key")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = newKVStore(ctx, "redis", dirPath)
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestRuntimeCloseReturnsStorageError(t *testing.T) {
	t.Parallel()
	closeErr := errors.New("database is locked")
	runtime := newTestRuntime("")
	runtime.close = func() error { return closeErr }
	require.ErrorIs(t, runtime.Close(), closeErr)

	// Backends without a close function close cleanly.
	require.NoError(t, newTestRuntime("").Close())
}

func newTestRuntime(reportingCurrency string) *Runtime {
	config := subctlconfig.DefaultConfig()
	config.ReportingCurrency = reportingCurrency
	kvStore := kvstore.NewMemoryStore()
	return &Runtime{
		Config:  config,
		KVStore: kvStore,
		Store:   subctlstore.NewStore(slog.New(slog.DiscardHandler), kvStore),
	}
}

func createSubscription(t *testing.T, runtime *Runtime, currency string) {
	t.Helper()
	_, err := runtime.Store.Create(
		context.Background(),
		subctlstore.SubscriptionInput{
			Name:            "Music",
			Amount:          9,
			Period:          period.Monthly,
			Currency:        currency,
			NextBillingDate: xtime.Date{Year: 2026, Month: 11, Day: 1},
		},
	)
	require.NoError(t, err)
}
