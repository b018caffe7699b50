package google

import (
	"context"
	"errors"
	"strings"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/model"
	"google.golang.org/genai"
)

var errNoImage = errors.New("google: response contained no image")

// GenerateImage generates images from a text prompt. Imagen models return up
// to four images from one call; Gemini image models return one.
func (c *Client) GenerateImage(ctx context.Context, prompt string, opts ...ai.ImageOption) (*ai.ImageResponse, error) {
	options := ai.ApplyImageOptions(opts...)

	modelID := options.Model
	if modelID == "" {
		modelID = model.DefaultImagenModel.String()
	}
	if isGemini(modelID) {
		return c.generateContent(ctx, modelID, prompt, nil, "", options)
	}

	n := options.Count
	if n <= 0 {
		n = 1
	}
	if max := c.MaxImagesPerCall(modelID); n > max {
		n = max
	}

	config := &genai.GenerateImagesConfig{
		NumberOfImages:   int32(n),
		IncludeRAIReason: true,
	}
	switch {
	case options.AspectRatio != "":
		config.AspectRatio = options.AspectRatio
	case options.Size != "":
		config.AspectRatio = convertSizeToAspectRatio(options.Size)
	}

	resp, err := c.client.Models.GenerateImages(ctx, modelID, prompt, config)
	if err != nil {
		return nil, wrapError(err)
	}

	out := &ai.ImageResponse{}
	for _, img := range resp.GeneratedImages {
		if img == nil {
			continue
		}
		g := ai.GeneratedImage{RevisedPrompt: img.EnhancedPrompt}
		if img.Image != nil {
			g.Data = img.Image.ImageBytes
			g.MIMEType = img.Image.MIMEType
		}
		if out.EnhancedPrompt == "" {
			out.EnhancedPrompt = img.EnhancedPrompt
		}
		// Filtered slots come back without bytes; keep them so callers see the gap.
		out.Images = append(out.Images, g)
	}
	return out, nil
}

// EditImage generates one image conditioned on source using a Gemini image model.
func (c *Client) EditImage(ctx context.Context, prompt string, source []byte, mimeType string, opts ...ai.ImageOption) (*ai.ImageResponse, error) {
	options := ai.ApplyImageOptions(opts...)

	modelID := options.Model
	if modelID == "" || !isGemini(modelID) {
		modelID = model.DefaultGeminiEditModel.String()
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return c.generateContent(ctx, modelID, prompt, source, mimeType, options)
}

// MaxImagesPerCall reports how many images one request to modelID can return.
func (c *Client) MaxImagesPerCall(modelID string) int {
	if modelID == "" {
		return model.DefaultImagenModel.MaxPerCall()
	}
	if m, ok := model.LookupImage(modelID); ok {
		return m.MaxPerCall()
	}
	if isGemini(modelID) {
		return 1
	}
	return 4
}

func (c *Client) generateContent(ctx context.Context, modelID, prompt string, source []byte, mimeType string, options *ai.ImageOptions) (*ai.ImageResponse, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if len(source) > 0 {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: source}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelID, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	out := &ai.ImageResponse{}
	var text []string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				out.Images = append(out.Images, ai.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				})
				continue
			}
			if s := strings.TrimSpace(part.Text); s != "" {
				text = append(text, s)
			}
		}
	}
	if len(out.Images) == 0 {
		return nil, errNoImage
	}
	if options.EnhancePrompt && len(text) > 0 {
		out.EnhancedPrompt = strings.Join(text, " ")
	}
	return out, nil
}

func isGemini(modelID string) bool {
	return strings.HasPrefix(modelID, "gemini")
}

// convertSizeToAspectRatio maps ImageSize to Imagen aspect ratio strings.
func convertSizeToAspectRatio(size ai.ImageSize) string {
	switch size {
	case ai.ImageSize1024x1536:
		return "3:4"
	case ai.ImageSize1536x1024:
		return "4:3"
	default:
		return "1:1"
	}
}
