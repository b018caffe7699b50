package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("get set delete", func(t *testing.T) {
		s := New(nil)
		s.Set("provider", "google")

		v, ok := s.Get("provider")
		assert.True(t, ok)
		assert.Equal(t, "google", v)
		assert.True(t, s.Has("provider"))

		s.Delete("provider")
		assert.False(t, s.Has("provider"))
		assert.Equal(t, "", s.GetString("provider"))
	})

	t.Run("set default only fills absent keys", func(t *testing.T) {
		s := New(nil)
		assert.True(t, s.SetDefault("apiKey.google", "env-key"))
		assert.False(t, s.SetDefault("apiKey.google", "other"))
		assert.Equal(t, "env-key", s.GetString("apiKey.google"))
	})

	t.Run("keys are sorted", func(t *testing.T) {
		s := New(nil)
		s.Set("theme", "dark")
		s.Set("modelVariant", "")
		s.Set("provider", "openai")
		assert.Equal(t, []string{"modelVariant", "provider", "theme"}, s.Keys())
	})

	t.Run("data is a copy", func(t *testing.T) {
		s := New(nil)
		s.Set("a", "1")
		d := s.Data()
		d["a"] = "2"
		assert.Equal(t, "1", s.GetString("a"))
	})
}

func TestStoreSyncReload(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()

	s := New(adapter)
	s.Set("provider", "openai")
	s.Set("theme", "light")
	require.NoError(t, s.Sync(ctx))

	raw, ok, err := adapter.Get(ctx, "provider")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"openai"`, string(raw))

	fresh := New(adapter)
	require.NoError(t, fresh.Reload(ctx))
	assert.Equal(t, s.Data(), fresh.Data())
}

func TestStoreReloadRejectsNonString(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()
	require.NoError(t, adapter.Set(ctx, "count", json.RawMessage(`42`)))

	err := New(adapter).Reload(ctx)
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "count", serr.Key)
}

func TestSQLiteAdapter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	a, err := NewSQLiteAdapter(path)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "provider", json.RawMessage(`"google"`)))
	require.NoError(t, a.Set(ctx, "provider", json.RawMessage(`"openai"`)))
	require.NoError(t, a.Set(ctx, "theme", json.RawMessage(`"dark"`)))

	v, ok, err := a.Get(ctx, "provider")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"openai"`, string(v))

	_, ok, err = a.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err := a.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"provider", "theme"}, keys)

	require.NoError(t, a.Delete(ctx, "theme"))
	require.NoError(t, a.Save(ctx, map[string]json.RawMessage{"modelVariant": json.RawMessage(`"dall-e-3"`)}))

	data, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]json.RawMessage{"modelVariant": json.RawMessage(`"dall-e-3"`)}, data)
	require.NoError(t, a.Close())

	t.Run("survives reopen", func(t *testing.T) {
		reopened, err := NewSQLiteAdapter(path)
		require.NoError(t, err)
		defer reopened.Close()

		s := New(reopened)
		require.NoError(t, s.Reload(ctx))
		assert.Equal(t, "dall-e-3", s.GetString("modelVariant"))
	})

	t.Run("closed adapter errors", func(t *testing.T) {
		_, _, err := a.Get(ctx, "provider")
		assert.ErrorIs(t, err, ErrAdapterClosed)
		assert.NoError(t, a.Close())
	})
}
