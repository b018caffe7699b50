package mosaic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// MediaKind distinguishes image from video generations.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// ImageItem is one generated image as held by a completed generation.
// Sample items are seeded demo assets with no RawBytes.
type ImageItem struct {
	URL      string `json:"url"`
	RawBytes []byte `json:"rawBytes,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	IsSample bool   `json:"isSample,omitempty"`
}

// HasBytes reports whether the item can feed a conversion workflow.
func (i ImageItem) HasBytes() bool { return !i.IsSample && len(i.RawBytes) > 0 }

// NewImageItem builds an item from raw image bytes, encoding them as a data URI.
func NewImageItem(data []byte, mimeType string) ImageItem {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return ImageItem{URL: DataURI(data, mimeType), RawBytes: data, MIMEType: mimeType}
}

// DataURI encodes data as a base64 data URI.
func DataURI(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeImage accepts either a data URI or bare base64 and returns the bytes
// and MIME type (image/png when not stated).
func DecodeImage(s string) ([]byte, string, error) {
	mimeType := "image/png"
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		header = strings.TrimPrefix(header, "data:")
		if mt, _, _ := strings.Cut(header, ";"); mt != "" {
			mimeType = mt
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("decode image: empty payload")
	}
	return data, mimeType, nil
}

// GeneratedImage is a single image returned by a provider call. A provider
// sets Data, URL, or both; a slot with neither is treated as empty.
type GeneratedImage struct {
	URL      string
	Data     []byte
	MIMEType string
	// RevisedPrompt is the prompt the provider actually used, when echoed.
	RevisedPrompt string
}

// Empty reports whether the slot carries no payload.
func (g GeneratedImage) Empty() bool { return g.URL == "" && len(g.Data) == 0 }

// ImageResponse is the result of one provider image call.
type ImageResponse struct {
	Images         []GeneratedImage
	EnhancedPrompt string
}

// GeneratedVideo is a single finished video.
type GeneratedVideo struct {
	URL      string
	Data     []byte
	MIMEType string
}

// VideoOperation is a provider's handle on an in-flight video job. It is
// re-submitted verbatim to the status check until Done.
type VideoOperation struct {
	Name     string           `json:"name"`
	Provider Provider         `json:"provider"`
	Done     bool             `json:"done"`
	Videos   []GeneratedVideo `json:"-"`
	Error    string           `json:"error,omitempty"`
	// Filtered lists safety-filter reasons when a finished job produced nothing.
	Filtered []string `json:"filtered,omitempty"`
}

// VideoURLs returns the playable URL of every non-empty video.
func (op *VideoOperation) VideoURLs() []string {
	var urls []string
	for _, v := range op.Videos {
		switch {
		case v.URL != "":
			urls = append(urls, v.URL)
		case len(v.Data) > 0:
			mt := v.MIMEType
			if mt == "" {
				mt = "video/mp4"
			}
			urls = append(urls, DataURI(v.Data, mt))
		}
	}
	return urls
}

// ImageProvider generates images from a text prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string, opts ...ImageOption) (*ImageResponse, error)
}

// ImageEditor generates images conditioned on a source image.
type ImageEditor interface {
	EditImage(ctx context.Context, prompt string, source []byte, mimeType string, opts ...ImageOption) (*ImageResponse, error)
}

// VideoProvider starts long-running video jobs and reports their status.
type VideoProvider interface {
	GenerateVideo(ctx context.Context, prompt string, opts ...VideoOption) (*VideoOperation, error)
	VideoStatus(ctx context.Context, op *VideoOperation) (*VideoOperation, error)
}

// PromptEnhancer rewrites an improvement request into a single image prompt.
type PromptEnhancer interface {
	EnhancePrompt(ctx context.Context, original, improvement string) (string, error)
}

// ImagesPerCaller is implemented by providers that can return more than one
// image from a single call.
type ImagesPerCaller interface {
	MaxImagesPerCall(model string) int
}
