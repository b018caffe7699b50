package model

import ai "github.com/spetersoncode/mosaic"

// ImageModel represents an image generation model from any provider.
type ImageModel struct {
	id          string
	provider    ai.Provider
	pricing     ImagePricing
	perCall     int
	conditioned bool
}

// String returns the API identifier for this model.
func (m ImageModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ImageModel) Provider() ai.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ImageModel) Pricing() ImagePricing { return m.pricing }

// MaxPerCall returns how many images a single request can yield.
func (m ImageModel) MaxPerCall() int {
	if m.perCall < 1 {
		return 1
	}
	return m.perCall
}

// AcceptsSourceImage reports whether the model can be conditioned on an input image.
func (m ImageModel) AcceptsSourceImage() bool { return m.conditioned }

// Google Image Models
// Model pricing last verified: December 14, 2025
var (
	// Imagen 4 Series
	Imagen4      = ImageModel{id: "imagen-4.0-generate-001", provider: ai.ProviderGoogle, pricing: ImagePricing{PerImage: 0.04}, perCall: 4}
	Imagen4Fast  = ImageModel{id: "imagen-4.0-fast-generate-001", provider: ai.ProviderGoogle, pricing: ImagePricing{PerImage: 0.02}, perCall: 4}
	Imagen4Ultra = ImageModel{id: "imagen-4.0-ultra-generate-001", provider: ai.ProviderGoogle, pricing: ImagePricing{PerImage: 0.06}, perCall: 1}

	// Gemini native image output, one image per call
	GeminiFlashImage = ImageModel{id: "gemini-2.5-flash-image", provider: ai.ProviderGoogle, pricing: ImagePricing{PerImage: 0.039}, perCall: 1, conditioned: true}

	// DefaultImagenModel is the default Google text-to-image model.
	DefaultImagenModel = Imagen4
	// DefaultGeminiEditModel is the default Google image-conditioned model.
	DefaultGeminiEditModel = GeminiFlashImage
)

// OpenAI Image Models
// Model pricing last verified: December 14, 2025
var (
	GPTImage1     = ImageModel{id: "gpt-image-1", provider: ai.ProviderOpenAI, pricing: ImagePricing{LowQuality: 0.011, MediumQuality: 0.042, HighQuality: 0.167}, perCall: 4, conditioned: true}
	GPTImage1Mini = ImageModel{id: "gpt-image-1-mini", provider: ai.ProviderOpenAI, pricing: ImagePricing{LowQuality: 0.005, MediumQuality: 0.011, HighQuality: 0.036}, perCall: 4, conditioned: true}
	DallE3        = ImageModel{id: "dall-e-3", provider: ai.ProviderOpenAI, pricing: ImagePricing{MediumQuality: 0.04, HighQuality: 0.08}, perCall: 1}

	// DefaultGPTImageModel is the recommended default OpenAI image model.
	DefaultGPTImageModel = GPTImage1
)

var imageModels = []ImageModel{
	Imagen4, Imagen4Fast, Imagen4Ultra, GeminiFlashImage,
	GPTImage1, GPTImage1Mini, DallE3,
}

// LookupImage finds an image model by its API identifier.
func LookupImage(id string) (ImageModel, bool) {
	for _, m := range imageModels {
		if m.id == id {
			return m, true
		}
	}
	return ImageModel{}, false
}

// ImageModels returns the image models offered by a provider.
func ImageModels(p ai.Provider) []ImageModel {
	var out []ImageModel
	for _, m := range imageModels {
		if m.provider == p {
			out = append(out, m)
		}
	}
	return out
}

// DefaultImage returns the default text-to-image model for a provider.
func DefaultImage(p ai.Provider) (ImageModel, bool) {
	switch p {
	case ai.ProviderGoogle:
		return DefaultImagenModel, true
	case ai.ProviderOpenAI:
		return DefaultGPTImageModel, true
	}
	return ImageModel{}, false
}

// DefaultEdit returns the default image-conditioned model for a provider.
func DefaultEdit(p ai.Provider) (ImageModel, bool) {
	switch p {
	case ai.ProviderGoogle:
		return DefaultGeminiEditModel, true
	case ai.ProviderOpenAI:
		return DefaultGPTImageModel, true
	}
	return ImageModel{}, false
}

// ResolveImage picks the model for a request. A known variant wins when it
// belongs to the provider; otherwise the provider default is used, switching
// to the image-conditioned default when a source image is present and the
// variant cannot take one.
func ResolveImage(p ai.Provider, variant string, withSource bool) (ImageModel, bool) {
	if m, ok := LookupImage(variant); ok && m.provider == p {
		if !withSource || m.conditioned {
			return m, true
		}
	}
	if withSource {
		return DefaultEdit(p)
	}
	return DefaultImage(p)
}
