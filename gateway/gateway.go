package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/internal/retry"
	"github.com/spetersoncode/mosaic/settings"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultImageCount is how many images a generation asks for.
	DefaultImageCount = 4
	// DefaultVideoCount is how many videos a video generation asks for.
	DefaultVideoCount = 2

	tracerName = "github.com/spetersoncode/mosaic/gateway"
)

// SettingsSource supplies the stored provider preferences and credentials.
// *settings.Manager satisfies it.
type SettingsSource interface {
	Current() settings.Settings
}

// Config holds configuration for creating a Gateway.
type Config struct {
	// Settings supplies stored credentials and provider preferences.
	// If nil, only explicit request credentials are used.
	Settings SettingsSource

	// Factory constructs provider backends. If nil, DefaultFactory is used.
	Factory Factory

	// RetryConfig configures retry behavior for transient provider errors.
	// If nil, uses DefaultRetryConfig.
	RetryConfig *RetryConfig

	// ImageCount is the number of images requested per generation (default 4).
	ImageCount int

	// VideoCount is the number of videos requested per video generation (default 2).
	VideoCount int

	// Events is an optional channel for receiving request events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- event.Event

	Logger *slog.Logger
	Tracer trace.Tracer
}

// Request describes one image or video generation.
type Request struct {
	Prompt string

	// APIKey takes precedence over the stored credential for the provider.
	APIKey string

	// Provider overrides the stored provider preference.
	Provider ai.Provider

	// Model overrides the stored model variant.
	Model string

	// SourceImage conditions the generation on an existing image.
	SourceImage []byte
	SourceMIME  string
}

// ImproveRequest describes an image refinement.
type ImproveRequest struct {
	OriginalPrompt    string
	ImprovementPrompt string
	SourceImage       []byte
	SourceMIME        string
	APIKey            string
	Provider          ai.Provider
	Model             string
}

// ImageResult is a successful image outcome.
type ImageResult struct {
	Items          []ai.ImageItem
	EnhancedPrompt string
	Provider       ai.Provider
	Model          string
}

// Gateway translates generation intents into normalized outcomes. It reads
// settings but never mutates them, and holds no generation state.
type Gateway struct {
	settings   SettingsSource
	factory    Factory
	retry      retry.Config
	imageCount int
	videoCount int
	events     chan<- event.Event
	logger     *slog.Logger
	tracer     trace.Tracer

	// One backend is cached per provider (protected by mutex).
	mu       sync.RWMutex
	backends map[ai.Provider]cachedBackend
}

type cachedBackend struct {
	apiKey  string
	backend Backend
}

// New creates a Gateway with the given configuration.
func New(cfg Config) *Gateway {
	g := &Gateway{
		settings:   cfg.Settings,
		factory:    cfg.Factory,
		retry:      retry.DefaultConfig(),
		imageCount: cfg.ImageCount,
		videoCount: cfg.VideoCount,
		events:     cfg.Events,
		logger:     cfg.Logger,
		tracer:     cfg.Tracer,
		backends:   make(map[ai.Provider]cachedBackend),
	}
	if cfg.RetryConfig != nil {
		g.retry = *cfg.RetryConfig
	}
	if g.factory == nil {
		g.factory = DefaultFactory
	}
	if g.imageCount <= 0 {
		g.imageCount = DefaultImageCount
	}
	if g.videoCount <= 0 {
		g.videoCount = DefaultVideoCount
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// ImageCount returns the configured images per generation.
func (g *Gateway) ImageCount() int { return g.imageCount }

// VideoCount returns the configured videos per generation.
func (g *Gateway) VideoCount() int { return g.videoCount }

func (g *Gateway) current() settings.Settings {
	if g.settings == nil {
		return settings.Settings{}
	}
	return g.settings.Current()
}

// credentials picks the provider and key for a call. An explicit key wins
// over the stored one; absence of both fails without any network call.
type credentials struct {
	provider ai.Provider
	apiKey   string
	variant  string
}

func (g *Gateway) resolve(provider ai.Provider, apiKey, modelID string) (credentials, error) {
	s := g.current()

	c := credentials{provider: provider, apiKey: apiKey, variant: modelID}
	if c.provider == "" {
		c.provider = s.Provider
	}
	if c.provider == "" {
		c.provider = ai.ProviderGoogle
	}
	if c.variant == "" && c.provider == s.Provider {
		c.variant = s.ModelVariant
	}
	if c.apiKey == "" {
		c.apiKey = s.Credentials.For(c.provider)
	}
	if c.apiKey == "" {
		return c, ai.NewFailure(ai.FailureMissingCredentials,
			fmt.Sprintf("An API key for %s is required. Add one in settings.", c.provider), nil)
	}
	return c, nil
}

func requirePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ai.NewFailure(ai.FailureInvalidInput, "Please enter a prompt.", ai.ErrEmptyPrompt)
	}
	return nil
}

// withRetry runs fn under the retry policy, reporting each backoff wait.
func withRetry[T any](ctx context.Context, g *Gateway, op string, p ai.Provider, fn func() (T, error)) (T, error) {
	return retry.DoNotify(ctx, g.retry, func(w retry.Wait) {
		g.logger.Warn("retrying provider call",
			"operation", op, "provider", p, "attempt", w.Attempt, "delay", w.Delay, "error", w.Err)
		event.Emit(g.events, event.Event{
			Type:        event.Retry,
			Operation:   op,
			Provider:    p,
			Attempt:     w.Attempt,
			MaxAttempts: w.MaxAttempts,
			Delay:       w.Delay,
			Error:       w.Err,
		})
	}, fn)
}
