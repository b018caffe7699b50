package settings

import (
	"context"
	"path/filepath"
	"testing"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestManagerDefaults(t *testing.T) {
	m := New(nil)
	s := m.Current()
	assert.Equal(t, ai.ProviderGoogle, s.Provider)
	assert.Empty(t, s.ModelVariant)
	assert.Empty(t, s.Credentials.For(ai.ProviderGoogle))
}

func TestManagerApply(t *testing.T) {
	ctx := context.Background()

	t.Run("stores provider variant and keys", func(t *testing.T) {
		m := New(nil)
		s, err := m.Apply(ctx, Update{
			Provider:     strPtr("secondary"),
			ModelVariant: strPtr(" dall-e-3 "),
			APIKeys:      map[ai.Provider]string{ai.ProviderOpenAI: "sk-test-1234"},
		})
		require.NoError(t, err)
		assert.Equal(t, ai.ProviderOpenAI, s.Provider)
		assert.Equal(t, "dall-e-3", s.ModelVariant)
		assert.Equal(t, "sk-test-1234", m.APIKey(ai.ProviderOpenAI))
	})

	t.Run("empty key removes it", func(t *testing.T) {
		m := New(nil)
		_, err := m.Apply(ctx, Update{APIKeys: map[ai.Provider]string{ai.ProviderGoogle: "g-key"}})
		require.NoError(t, err)
		_, err = m.Apply(ctx, Update{APIKeys: map[ai.Provider]string{ai.ProviderGoogle: ""}})
		require.NoError(t, err)
		assert.Empty(t, m.APIKey(ai.ProviderGoogle))
	})

	t.Run("rejects unknown and non-media providers", func(t *testing.T) {
		m := New(nil)
		_, err := m.Apply(ctx, Update{Provider: strPtr("midjourney")})
		assert.Error(t, err)
		_, err = m.Apply(ctx, Update{Provider: strPtr("anthropic")})
		assert.Error(t, err)
		assert.Equal(t, ai.ProviderGoogle, m.Current().Provider)
	})
}

func TestManagerSubscribe(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	ch, unsubscribe := m.Subscribe()

	_, err := m.Apply(ctx, Update{Theme: strPtr("dark")})
	require.NoError(t, err)
	_, err = m.Apply(ctx, Update{Theme: strPtr("light")})
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, "light", got.Theme, "slow readers see the latest snapshot")

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestManagerSeed(t *testing.T) {
	m := New(nil)
	assert.True(t, m.SeedAPIKey(ai.ProviderGoogle, "from-env"))
	assert.False(t, m.SeedAPIKey(ai.ProviderGoogle, "other"))
	assert.False(t, m.SeedAPIKey(ai.ProviderOpenAI, ""))
	assert.Equal(t, "from-env", m.APIKey(ai.ProviderGoogle))

	m.SeedDefaults(ai.ProviderOpenAI, "gpt-image-1")
	m.SeedDefaults(ai.ProviderGoogle, "imagen-4.0-generate-001")
	s := m.Current()
	assert.Equal(t, ai.ProviderOpenAI, s.Provider)
	assert.Equal(t, "gpt-image-1", s.ModelVariant)
}

func TestManagerPersistsToSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	a, err := store.NewSQLiteAdapter(path)
	require.NoError(t, err)
	m := New(store.New(a))
	_, err = m.Apply(ctx, Update{
		Provider: strPtr("openai"),
		APIKeys:  map[ai.Provider]string{ai.ProviderOpenAI: "sk-persisted"},
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := store.NewSQLiteAdapter(path)
	require.NoError(t, err)
	defer b.Close()
	reloaded := New(store.New(b))
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, ai.ProviderOpenAI, reloaded.Current().Provider)
	assert.Equal(t, "sk-persisted", reloaded.APIKey(ai.ProviderOpenAI))
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "***"},
		{"AIzaSyExample1234", "********1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in))
	}
}
