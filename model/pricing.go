package model

import ai "github.com/spetersoncode/mosaic"

// ImagePricing contains image generation pricing (USD).
// Different providers use different pricing models.
type ImagePricing struct {
	// PerImage is a flat per-image price (Google).
	PerImage float64
	// LowQuality is the price for low quality images (OpenAI).
	LowQuality float64
	// MediumQuality is the price for medium quality images (OpenAI).
	MediumQuality float64
	// HighQuality is the price for high quality images (OpenAI).
	HighQuality float64
}

// HasQualityTiers returns true if the model has quality-based pricing tiers.
func (p ImagePricing) HasQualityTiers() bool {
	return p.LowQuality > 0 || p.MediumQuality > 0 || p.HighQuality > 0
}

// HasFlatPricing returns true if the model uses flat per-image pricing.
func (p ImagePricing) HasFlatPricing() bool {
	return p.PerImage > 0
}

// Cost estimates the price of n images. Tiered models fall back to the
// medium tier when quality is unset.
func (p ImagePricing) Cost(n int, quality ai.ImageQuality) float64 {
	if p.HasFlatPricing() {
		return float64(n) * p.PerImage
	}
	per := p.MediumQuality
	switch quality {
	case ai.ImageQualityLow:
		per = p.LowQuality
	case ai.ImageQualityHigh:
		per = p.HighQuality
	}
	return float64(n) * per
}

// VideoPricing contains video generation pricing (USD).
type VideoPricing struct {
	PerSecond float64
	// Seconds is the default clip length.
	Seconds int
}

// Cost estimates the price of n default-length clips.
func (p VideoPricing) Cost(n int) float64 {
	return float64(n) * float64(p.Seconds) * p.PerSecond
}
