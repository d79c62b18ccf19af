// Copyright 2026 Peter Edge
//
// All rights reserved.

package kvstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemoryStore())
}

func TestDirStore(t *testing.T) {
	t.Parallel()
	dirPath := filepath.Join(t.TempDir(), "data")
	testStore(t, NewDirStore(dirPath))

	// Values survive a new store over the same directory.
	ctx := context.Background()
	require.NoError(t, NewDirStore(dirPath).Set(ctx, "persisted", "yes"))
	value, ok, err := NewDirStore(dirPath).Get(ctx, "persisted")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "yes", value)
	require.FileExists(t, filepath.Join(dirPath, "persisted.json"))
}

func TestDirStoreInvalidKey(t *testing.T) {
	t.Parallel()
	store := NewDirStore(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		require.Error(t, store.Set(ctx, key, "value"), key)
		_, _, err := store.Get(ctx, key)
		require.Error(t, err, key)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "subctl.db")
	store, err := NewSQLiteStore(ctx, dbPath)
	require.NoError(t, err)
	testStore(t, store)
	require.NoError(t, store.Set(ctx, "persisted", "yes"))
	require.NoError(t, store.Close())

	// Reopening applies no new migrations and keeps the data.
	reopened, err := NewSQLiteStore(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	value, ok, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "yes", value)
}

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "exchange-rates-USD", `{"base":"USD"}`))
	value, ok, err := store.Get(ctx, "exchange-rates-USD")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"base":"USD"}`, value)

	require.NoError(t, store.Set(ctx, "exchange-rates-USD", `{"base":"USD","rates":{}}`))
	value, _, err = store.Get(ctx, "exchange-rates-USD")
	require.NoError(t, err)
	require.Equal(t, `{"base":"USD","rates":{}}`, value)

	require.NoError(t, store.Delete(ctx, "exchange-rates-USD"))
	_, ok, err = store.Get(ctx, "exchange-rates-USD")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, store.Delete(ctx, "exchange-rates-USD"))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "baseCurrency", "EUR")
		}()
	}
	wg.Wait()
	value, ok, err = store.Get(ctx, "baseCurrency")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "EUR", value)
}
