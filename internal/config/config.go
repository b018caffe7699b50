// Package config loads server configuration from an optional YAML file,
// MOSAIC_-prefixed environment variables and a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/gateway"
	"github.com/spetersoncode/mosaic/poll"
	"github.com/spetersoncode/mosaic/studio"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// key levels: MOSAIC_SERVER__PORT sets server.port.
const EnvPrefix = "MOSAIC_"

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Config holds the server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	LogLevel   string           `koanf:"log_level"`
	Settings   SettingsConfig   `koanf:"settings"`
	Generation GenerationConfig `koanf:"generation"`
	Poll       PollConfig       `koanf:"poll"`
	Retry      RetryConfig      `koanf:"retry"`
	Defaults   DefaultsConfig   `koanf:"defaults"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Samples    []studio.Sample  `koanf:"samples"`

	// APIKeys are read from the provider's conventional environment
	// variables and only seed the settings store.
	APIKeys map[ai.Provider]string `koanf:"-"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// SettingsConfig locates persisted user settings. An empty path keeps them
// in memory.
type SettingsConfig struct {
	Path string `koanf:"path"`
}

type GenerationConfig struct {
	ImageCount int `koanf:"image_count"`
	VideoCount int `koanf:"video_count"`
}

type PollConfig struct {
	Interval    time.Duration `koanf:"interval"`
	MaxAttempts int           `koanf:"max_attempts"`
}

type RetryConfig struct {
	MaxAttempts int `koanf:"max_attempts"`
}

type DefaultsConfig struct {
	Provider     string `koanf:"provider"`
	ModelVariant string `koanf:"model_variant"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

var defaults = map[string]any{
	"server.port":            8080,
	"log_level":              "info",
	"settings.path":          "",
	"generation.image_count": gateway.DefaultImageCount,
	"generation.video_count": gateway.DefaultVideoCount,
	"poll.interval":          "10s",
	"poll.max_attempts":      60,
	"retry.max_attempts":     3,
	"defaults.provider":      string(ai.ProviderGoogle),
	"defaults.model_variant": "",
	"telemetry.enabled":      false,
}

// Load reads configuration. A missing .env or config file is not an error.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, v := range defaults {
		if !k.Exists(key) {
			k.Set(key, v)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIKeys = apiKeysFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func apiKeysFromEnv() map[ai.Provider]string {
	keys := make(map[ai.Provider]string)
	google := os.Getenv("GOOGLE_API_KEY")
	if google == "" {
		google = os.Getenv("GEMINI_API_KEY")
	}
	if google != "" {
		keys[ai.ProviderGoogle] = google
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		keys[ai.ProviderOpenAI] = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		keys[ai.ProviderAnthropic] = v
	}
	return keys
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Generation.ImageCount <= 0 {
		return fmt.Errorf("generation.image_count must be positive")
	}
	if c.Generation.VideoCount <= 0 {
		return fmt.Errorf("generation.video_count must be positive")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if c.Poll.MaxAttempts <= 0 {
		return fmt.Errorf("poll.max_attempts must be positive")
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive")
	}
	p, err := ai.ParseProvider(c.Defaults.Provider)
	if err != nil {
		return fmt.Errorf("defaults.provider: %w", err)
	}
	if p == ai.ProviderAnthropic {
		return fmt.Errorf("defaults.provider: anthropic cannot generate images")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultProvider returns the parsed default provider.
func (c *Config) DefaultProvider() ai.Provider {
	p, _ := ai.ParseProvider(c.Defaults.Provider)
	return p
}

// PollConfig returns the video poller configuration.
func (c *Config) PollConfig() poll.Config {
	return poll.Config{Interval: c.Poll.Interval, MaxAttempts: c.Poll.MaxAttempts}
}

// RetryConfig returns the gateway retry configuration.
func (c *Config) RetryConfig() gateway.RetryConfig {
	return gateway.DefaultRetryConfig().WithMaxAttempts(c.Retry.MaxAttempts)
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
}
