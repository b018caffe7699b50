package mosaic

import (
	"fmt"
	"strings"
)

// Provider identifies a generation provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderGoogle    Provider = "google"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider resolves a provider name. The settings aliases "primary" and
// "secondary" map to Google and OpenAI respectively.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "primary", "google", "gemini":
		return ProviderGoogle, nil
	case "secondary", "openai":
		return ProviderOpenAI, nil
	case "anthropic":
		return ProviderAnthropic, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}
