// Package app wires configuration into the settings store, gateway and
// studio shared by the server and MCP binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/gateway"
	"github.com/spetersoncode/mosaic/internal/config"
	"github.com/spetersoncode/mosaic/internal/store"
	"github.com/spetersoncode/mosaic/settings"
	"github.com/spetersoncode/mosaic/studio"
)

// App holds the long-lived components.
type App struct {
	Settings *settings.Manager
	Gateway  *gateway.Gateway
	Studio   *studio.Studio
	Hub      *event.Hub

	events  chan event.Event
	closers []func() error
}

// Option customizes New.
type Option func(*options)

type options struct {
	factory gateway.Factory
}

// WithFactory replaces the provider backend factory.
func WithFactory(f gateway.Factory) Option {
	return func(o *options) { o.factory = f }
}

// New builds the components described by cfg. Events flow to the Hub until
// ctx ends.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{events: event.NewChannel(), Hub: event.NewHub()}

	prefs, err := a.openSettings(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Settings = prefs

	retryCfg := cfg.RetryConfig()
	a.Gateway = gateway.New(gateway.Config{
		Settings:    prefs,
		Factory:     o.factory,
		RetryConfig: &retryCfg,
		ImageCount:  cfg.Generation.ImageCount,
		VideoCount:  cfg.Generation.VideoCount,
		Events:      a.events,
		Logger:      logger.With("component", "gateway"),
	})
	a.Studio = studio.New(studio.Config{
		Gateway: a.Gateway,
		Poll:    cfg.PollConfig(),
		Events:  a.events,
		Logger:  logger.With("component", "studio"),
	})
	a.Studio.Seed(cfg.Samples...)

	go a.Hub.Run(ctx, a.events)
	return a, nil
}

func (a *App) openSettings(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*settings.Manager, error) {
	var adapter store.Adapter
	if cfg.Settings.Path != "" {
		sqlite, err := store.NewSQLiteAdapter(cfg.Settings.Path)
		if err != nil {
			return nil, fmt.Errorf("open settings store: %w", err)
		}
		a.closers = append(a.closers, sqlite.Close)
		adapter = sqlite
	}

	prefs := settings.New(store.New(adapter), settings.WithLogger(logger.With("component", "settings")))
	if err := prefs.Load(ctx); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	for p, key := range cfg.APIKeys {
		if prefs.SeedAPIKey(p, key) {
			logger.Info("seeded API key from environment", "provider", p)
		}
	}
	prefs.SeedDefaults(cfg.DefaultProvider(), cfg.Defaults.ModelVariant)
	return prefs, nil
}

// Shutdown cancels running generations and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Studio != nil {
		errs = append(errs, a.Studio.Shutdown(ctx))
	}
	errs = append(errs, a.Close())
	return errors.Join(errs...)
}

// Close releases the settings store.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
