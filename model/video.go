package model

import ai "github.com/spetersoncode/mosaic"

// VideoModel represents a video generation model.
type VideoModel struct {
	id        string
	provider  ai.Provider
	pricing   VideoPricing
	maxVideos int
}

// String returns the API identifier for this model.
func (m VideoModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m VideoModel) Provider() ai.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m VideoModel) Pricing() VideoPricing { return m.pricing }

// MaxVideos returns how many videos one operation can produce.
func (m VideoModel) MaxVideos() int { return m.maxVideos }

// Google Veo Models
// Model pricing last verified: December 14, 2025
var (
	Veo2     = VideoModel{id: "veo-2.0-generate-001", provider: ai.ProviderGoogle, pricing: VideoPricing{PerSecond: 0.35, Seconds: 8}, maxVideos: 2}
	Veo3     = VideoModel{id: "veo-3.0-generate-001", provider: ai.ProviderGoogle, pricing: VideoPricing{PerSecond: 0.40, Seconds: 8}, maxVideos: 1}
	Veo3Fast = VideoModel{id: "veo-3.0-fast-generate-001", provider: ai.ProviderGoogle, pricing: VideoPricing{PerSecond: 0.15, Seconds: 8}, maxVideos: 1}

	// DefaultVeoModel can return two videos from a single operation.
	DefaultVeoModel = Veo2
)

var videoModels = []VideoModel{Veo2, Veo3, Veo3Fast}

// LookupVideo finds a video model by its API identifier.
func LookupVideo(id string) (VideoModel, bool) {
	for _, m := range videoModels {
		if m.id == id {
			return m, true
		}
	}
	return VideoModel{}, false
}

// ResolveVideo picks the video model for a provider, honoring a known variant.
// Only Google offers video generation.
func ResolveVideo(p ai.Provider, variant string) (VideoModel, bool) {
	if m, ok := LookupVideo(variant); ok && m.provider == p {
		return m, true
	}
	if p == ai.ProviderGoogle {
		return DefaultVeoModel, true
	}
	return VideoModel{}, false
}
