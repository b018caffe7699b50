// Package store provides a small key-value store with pluggable persistence.
//
// Values are strings: the store backs user preferences and API keys, which
// the settings layer reads once at startup and rewrites on explicit change.
//
//	s := store.New(nil) // in-memory
//	s.Set("provider", "google")
//	if err := s.Sync(ctx); err != nil {
//	    return err
//	}
//
// Use [NewSQLiteAdapter] to keep values across restarts:
//
//	a, err := store.NewSQLiteAdapter("mosaic.db")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	s := store.New(a)
//	err = s.Reload(ctx)
package store
