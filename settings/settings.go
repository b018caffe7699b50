// Package settings holds the process-wide provider selection and credentials.
//
// There is one load point ([Manager.Load]) and one mutation point
// ([Manager.Apply]); readers take snapshots with [Manager.Current] or receive
// every change through [Manager.Subscribe].
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/internal/store"
)

// Store keys.
const (
	KeyProvider     = "provider"
	KeyModelVariant = "modelVariant"
	KeyTheme        = "theme"
	keyAPIPrefix    = "apiKey."
)

// Credentials holds one API key per provider.
type Credentials struct {
	Google    string
	OpenAI    string
	Anthropic string
}

// For returns the key for a provider, or "".
func (c Credentials) For(p ai.Provider) string {
	switch p {
	case ai.ProviderGoogle:
		return c.Google
	case ai.ProviderOpenAI:
		return c.OpenAI
	case ai.ProviderAnthropic:
		return c.Anthropic
	}
	return ""
}

// Settings is an immutable snapshot of user preferences.
type Settings struct {
	Provider     ai.Provider
	ModelVariant string
	Theme        string
	Credentials  Credentials
}

// Update describes a change. Nil fields are left untouched; an empty string
// in APIKeys removes the stored key.
type Update struct {
	Provider     *string
	ModelVariant *string
	Theme        *string
	APIKeys      map[ai.Provider]string
}

// Manager owns the settings store.
type Manager struct {
	mu     sync.RWMutex
	store  *store.Store
	subs   map[int]chan Settings
	nextID int
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// New creates a Manager over s. A nil store uses an in-memory one.
func New(s *store.Store, opts ...Option) *Manager {
	if s == nil {
		s = store.New(nil)
	}
	m := &Manager{
		store:  s,
		subs:   make(map[int]chan Settings),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads persisted settings from the store's adapter.
func (m *Manager) Load(ctx context.Context) error {
	if err := m.store.Reload(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	m.broadcast(m.Current())
	return nil
}

// Current returns a snapshot of the settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Manager) snapshot() Settings {
	p, err := ai.ParseProvider(m.store.GetString(KeyProvider))
	if err != nil {
		p = ai.ProviderGoogle
	}
	return Settings{
		Provider:     p,
		ModelVariant: m.store.GetString(KeyModelVariant),
		Theme:        m.store.GetString(KeyTheme),
		Credentials: Credentials{
			Google:    m.store.GetString(apiKeyName(ai.ProviderGoogle)),
			OpenAI:    m.store.GetString(apiKeyName(ai.ProviderOpenAI)),
			Anthropic: m.store.GetString(apiKeyName(ai.ProviderAnthropic)),
		},
	}
}

// APIKey returns the stored key for a provider.
func (m *Manager) APIKey(p ai.Provider) string {
	return m.Current().Credentials.For(p)
}

// Apply validates and stores an update, persists it, and notifies subscribers.
func (m *Manager) Apply(ctx context.Context, u Update) (Settings, error) {
	if u.Provider != nil {
		p, err := ai.ParseProvider(*u.Provider)
		if err != nil {
			return Settings{}, err
		}
		if p == ai.ProviderAnthropic {
			return Settings{}, fmt.Errorf("provider %q cannot generate media", p)
		}
	}

	m.mu.Lock()
	if u.Provider != nil {
		p, _ := ai.ParseProvider(*u.Provider)
		m.store.Set(KeyProvider, string(p))
	}
	if u.ModelVariant != nil {
		m.store.Set(KeyModelVariant, strings.TrimSpace(*u.ModelVariant))
	}
	if u.Theme != nil {
		m.store.Set(KeyTheme, *u.Theme)
	}
	for p, key := range u.APIKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			m.store.Delete(apiKeyName(p))
			continue
		}
		m.store.Set(apiKeyName(p), key)
	}
	current := m.snapshot()
	m.mu.Unlock()

	if err := m.store.Sync(ctx); err != nil {
		return current, fmt.Errorf("persist settings: %w", err)
	}

	m.logger.Info("settings updated",
		"provider", current.Provider,
		"model_variant", current.ModelVariant,
	)
	m.broadcast(current)
	return current, nil
}

// SeedAPIKey stores key for p only if no key is stored yet.
func (m *Manager) SeedAPIKey(p ai.Provider, key string) bool {
	if key == "" {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.SetDefault(apiKeyName(p), key)
}

// SeedDefaults fills provider and model variant when absent.
func (m *Manager) SeedDefaults(p ai.Provider, variant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.SetDefault(KeyProvider, string(p))
	if variant != "" {
		m.store.SetDefault(KeyModelVariant, variant)
	}
}

// Subscribe returns a channel that receives the latest settings after every
// change. Slow readers only see the most recent snapshot.
func (m *Manager) Subscribe() (<-chan Settings, func()) {
	ch := make(chan Settings, 1)
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

func (m *Manager) broadcast(s Settings) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func apiKeyName(p ai.Provider) string { return keyAPIPrefix + string(p) }

// Mask hides all but the last four characters of a key.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
