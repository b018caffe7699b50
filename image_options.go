package mosaic

// ImageSize represents predefined image dimensions.
type ImageSize string

const (
	ImageSize1024x1024 ImageSize = "1024x1024"
	ImageSize1024x1536 ImageSize = "1024x1536" // Portrait
	ImageSize1536x1024 ImageSize = "1536x1024" // Landscape
)

// ImageQuality specifies the quality level for generated images.
// Only honored by OpenAI models.
type ImageQuality string

const (
	ImageQualityLow    ImageQuality = "low"
	ImageQualityMedium ImageQuality = "medium"
	ImageQualityHigh   ImageQuality = "high"
)

// ImageOptions contains configuration for an image generation request.
type ImageOptions struct {
	Model       string
	Size        ImageSize
	AspectRatio string
	Count       int
	Quality     ImageQuality
	// EnhancePrompt asks the provider to rewrite the prompt and echo it back.
	EnhancePrompt bool
}

// ImageOption is a functional option for configuring image generation requests.
type ImageOption func(*ImageOptions)

// WithImageModel sets the model to use for image generation.
func WithImageModel(model string) ImageOption {
	return func(o *ImageOptions) {
		o.Model = model
	}
}

// WithImageSize sets the dimensions for generated images.
func WithImageSize(size ImageSize) ImageOption {
	return func(o *ImageOptions) {
		o.Size = size
	}
}

// WithAspectRatio sets the aspect ratio, e.g. "1:1" or "16:9".
// Imagen takes an aspect ratio rather than a pixel size.
func WithAspectRatio(ratio string) ImageOption {
	return func(o *ImageOptions) {
		o.AspectRatio = ratio
	}
}

// WithImageCount sets the number of images to request from a single call.
func WithImageCount(n int) ImageOption {
	return func(o *ImageOptions) {
		o.Count = n
	}
}

// WithImageQuality sets the quality level for generated images.
func WithImageQuality(q ImageQuality) ImageOption {
	return func(o *ImageOptions) {
		o.Quality = q
	}
}

// WithPromptEnhancement asks the provider to rewrite and echo the prompt.
func WithPromptEnhancement() ImageOption {
	return func(o *ImageOptions) {
		o.EnhancePrompt = true
	}
}

// ApplyImageOptions applies functional options to an ImageOptions struct.
func ApplyImageOptions(opts ...ImageOption) *ImageOptions {
	o := &ImageOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// VideoOptions contains configuration for a video generation request.
type VideoOptions struct {
	Model       string
	Count       int
	AspectRatio string
	// SourceImage seeds image-to-video generation when set.
	SourceImage []byte
	SourceMIME  string
}

// VideoOption is a functional option for configuring video generation requests.
type VideoOption func(*VideoOptions)

// WithVideoModel sets the model to use for video generation.
func WithVideoModel(model string) VideoOption {
	return func(o *VideoOptions) {
		o.Model = model
	}
}

// WithVideoCount sets the number of videos to request.
func WithVideoCount(n int) VideoOption {
	return func(o *VideoOptions) {
		o.Count = n
	}
}

// WithVideoAspectRatio sets the output aspect ratio.
func WithVideoAspectRatio(ratio string) VideoOption {
	return func(o *VideoOptions) {
		o.AspectRatio = ratio
	}
}

// WithSourceImage seeds the video with an image.
func WithSourceImage(data []byte, mimeType string) VideoOption {
	return func(o *VideoOptions) {
		o.SourceImage = data
		o.SourceMIME = mimeType
	}
}

// ApplyVideoOptions applies functional options to a VideoOptions struct.
func ApplyVideoOptions(opts ...VideoOption) *VideoOptions {
	o := &VideoOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
