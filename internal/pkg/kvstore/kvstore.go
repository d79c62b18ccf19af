// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package kvstore provides small string key-value stores for local state.
package kvstore

import (
	"context"
	"sync"
)

// Store is a string key-value store.
//
// Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value for key.
	//
	// The boolean is false if the key is not present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewMemoryStore returns a new in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		values: make(map[string]string),
	}
}

// *** PRIVATE ***

type memoryStore struct {
	lock   sync.RWMutex
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.values, key)
	return nil
}
