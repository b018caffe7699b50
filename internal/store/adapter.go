package store

import (
	"context"
	"encoding/json"
)

// Adapter defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get retrieves a value by key. Returns nil, false, nil if not found.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	// Delete removes a key. No error if key doesn't exist.
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	// Load retrieves all data as a map.
	Load(ctx context.Context) (map[string]json.RawMessage, error)
	// Save stores all data from a map, replacing existing data.
	Save(ctx context.Context, data map[string]json.RawMessage) error
}
