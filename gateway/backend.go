package gateway

import (
	"context"
	"fmt"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/internal/provider/anthropic"
	"github.com/spetersoncode/mosaic/internal/provider/google"
	"github.com/spetersoncode/mosaic/internal/provider/openai"
)

// Backend is a constructed provider client. It implements some subset of
// ai.ImageProvider, ai.ImageEditor, ai.VideoProvider, ai.PromptEnhancer and
// ai.ImagesPerCaller; the gateway checks for each capability it needs.
type Backend any

// Factory constructs the backend for a provider and API key.
type Factory func(ctx context.Context, p ai.Provider, apiKey string) (Backend, error)

// DefaultFactory builds the SDK-backed provider clients.
func DefaultFactory(ctx context.Context, p ai.Provider, apiKey string) (Backend, error) {
	switch p {
	case ai.ProviderGoogle:
		return google.New(ctx, apiKey)
	case ai.ProviderOpenAI:
		return openai.New(apiKey), nil
	case ai.ProviderAnthropic:
		return anthropic.New(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p)
	}
}

// backend returns the cached backend for a provider, creating it on first
// use. Each provider holds one entry; a different key replaces it, so a
// settings change takes effect on the next call. The factory runs without
// the lock held.
func (g *Gateway) backend(ctx context.Context, p ai.Provider, apiKey string) (Backend, error) {
	g.mu.RLock()
	entry, ok := g.backends[p]
	g.mu.RUnlock()
	if ok && entry.apiKey == apiKey {
		return entry.backend, nil
	}

	b, err := g.factory(ctx, p, apiKey)
	if err != nil {
		return nil, ai.NewFailure(ai.FailureProviderError,
			fmt.Sprintf("Failed to initialize %s client.", p), err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// Another caller may have built the same backend meanwhile.
	if entry, ok := g.backends[p]; ok && entry.apiKey == apiKey {
		return entry.backend, nil
	}
	g.backends[p] = cachedBackend{apiKey: apiKey, backend: b}
	return b, nil
}

// ErrFeatureNotSupported is returned when a provider lacks a capability.
type ErrFeatureNotSupported struct {
	Provider ai.Provider
	Feature  string
}

func (e *ErrFeatureNotSupported) Error() string {
	return fmt.Sprintf("%s provider does not support %s", e.Provider, e.Feature)
}
