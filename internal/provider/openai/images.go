package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/model"
)

// GenerateImage generates images from a text prompt. gpt-image models always
// return base64 payloads; DALL-E models are asked for them explicitly.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts ...ai.ImageOption) (*ai.ImageResponse, error) {
	options := ai.ApplyImageOptions(opts...)

	modelID := options.Model
	if modelID == "" {
		modelID = model.DefaultGPTImageModel.String()
	}

	params := openai.ImageGenerateParams{
		Model:  openai.ImageModel(modelID),
		Prompt: prompt,
	}

	size := options.Size
	if size == "" {
		size = ai.ImageSize1024x1024
	}
	params.Size = openai.ImageGenerateParamsSize(size)

	// DALL-E 3 only supports n=1
	n := options.Count
	if n <= 0 {
		n = 1
	}
	if max := c.MaxImagesPerCall(modelID); n > max {
		n = max
	}
	params.N = openai.Int(int64(n))

	if options.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(dalleQuality(modelID, options.Quality))
	}
	if isDallE(modelID) {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	resp, err := c.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertImages(resp)
}

// EditImage generates images conditioned on a source image.
func (c *Client) EditImage(ctx context.Context, prompt string, source []byte, mimeType string, opts ...ai.ImageOption) (*ai.ImageResponse, error) {
	options := ai.ApplyImageOptions(opts...)

	modelID := options.Model
	if m, ok := model.LookupImage(modelID); !ok || !m.AcceptsSourceImage() {
		modelID = model.DefaultGPTImageModel.String()
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	params := openai.ImageEditParams{
		Image: openai.ImageEditParamsImageUnion{
			OfFile: openai.File(bytes.NewReader(source), "source"+extensionFor(mimeType), mimeType),
		},
		Prompt: prompt,
		Model:  openai.ImageModel(modelID),
	}
	if options.Count > 1 {
		params.N = openai.Int(int64(options.Count))
	}
	if options.Size != "" {
		params.Size = openai.ImageEditParamsSize(options.Size)
	}
	if options.Quality != "" {
		params.Quality = openai.ImageEditParamsQuality(options.Quality)
	}

	resp, err := c.client.Images.Edit(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertImages(resp)
}

// MaxImagesPerCall reports how many images one request to modelID can return.
func (c *Client) MaxImagesPerCall(modelID string) int {
	if modelID == "" {
		return model.DefaultGPTImageModel.MaxPerCall()
	}
	if m, ok := model.LookupImage(modelID); ok {
		return m.MaxPerCall()
	}
	if isDallE(modelID) {
		return 1
	}
	return 4
}

func convertImages(resp *openai.ImagesResponse) (*ai.ImageResponse, error) {
	out := &ai.ImageResponse{}
	for _, img := range resp.Data {
		g := ai.GeneratedImage{URL: img.URL, RevisedPrompt: img.RevisedPrompt}
		if img.B64JSON != "" {
			data, err := base64.StdEncoding.DecodeString(img.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("openai: decode image: %w", err)
			}
			g.Data = data
			g.MIMEType = mimeFor(string(resp.OutputFormat))
		}
		if out.EnhancedPrompt == "" {
			out.EnhancedPrompt = img.RevisedPrompt
		}
		out.Images = append(out.Images, g)
	}
	return out, nil
}

func isDallE(modelID string) bool {
	return strings.HasPrefix(modelID, "dall-e")
}

// dalleQuality maps the shared quality levels onto DALL-E 3's standard/hd.
func dalleQuality(modelID string, q ai.ImageQuality) string {
	if !isDallE(modelID) {
		return string(q)
	}
	if q == ai.ImageQualityHigh {
		return "hd"
	}
	return "standard"
}

func mimeFor(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
