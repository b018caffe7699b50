package store

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// Store is a concurrency-safe string key-value cache over an Adapter.
// Mutations stay in the cache until Sync.
type Store struct {
	mu      sync.RWMutex
	adapter Adapter
	cache   map[string]string
}

// New creates a new Store with the given adapter.
// If adapter is nil, an in-memory adapter is used.
func New(adapter Adapter) *Store {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &Store{
		adapter: adapter,
		cache:   make(map[string]string),
	}
}

// Get retrieves a value from the store.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

// GetString retrieves a value, or "" when absent.
func (s *Store) GetString(key string) string {
	v, _ := s.Get(key)
	return v
}

// Set stores a value in the store.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = value
}

// SetDefault stores value only when key is absent. It reports whether the
// value was stored.
func (s *Store) SetDefault(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[key]; ok {
		return false
	}
	s.cache[key] = value
	return true
}

// Delete removes a key from the store.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, key)
}

// Has returns true if the key exists.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.cache))
}

// Data returns a copy of the cached values.
func (s *Store) Data() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.cache)
}

// Sync persists the current cache to the adapter.
func (s *Store) Sync(ctx context.Context) error {
	s.mu.RLock()
	data := make(map[string]json.RawMessage, len(s.cache))
	for k, v := range s.cache {
		raw, err := json.Marshal(v)
		if err != nil {
			s.mu.RUnlock()
			return &SerializationError{Key: k, Err: err}
		}
		data[k] = raw
	}
	s.mu.RUnlock()
	return s.adapter.Save(ctx, data)
}

// Reload replaces the cache with the adapter's contents.
func (s *Store) Reload(ctx context.Context) error {
	data, err := s.adapter.Load(ctx)
	if err != nil {
		return err
	}

	cache := make(map[string]string, len(data))
	for k, raw := range data {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return &SerializationError{Key: k, Err: err}
		}
		cache[k] = v
	}

	s.mu.Lock()
	s.cache = cache
	s.mu.Unlock()
	return nil
}

// Adapter returns the underlying adapter.
func (s *Store) Adapter() Adapter {
	return s.adapter
}
