package google

import (
	"context"
	"errors"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/model"
	"google.golang.org/genai"
)

// GenerateVideo starts a Veo long-running operation.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, opts ...ai.VideoOption) (*ai.VideoOperation, error) {
	options := ai.ApplyVideoOptions(opts...)

	modelID := options.Model
	if modelID == "" {
		modelID = model.DefaultVeoModel.String()
	}

	config := &genai.GenerateVideosConfig{}
	if options.Count > 0 {
		config.NumberOfVideos = int32(options.Count)
	}
	if options.AspectRatio != "" {
		config.AspectRatio = options.AspectRatio
	}

	var image *genai.Image
	if len(options.SourceImage) > 0 {
		mt := options.SourceMIME
		if mt == "" {
			mt = "image/png"
		}
		image = &genai.Image{ImageBytes: options.SourceImage, MIMEType: mt}
	}

	op, err := c.client.Models.GenerateVideos(ctx, modelID, prompt, image, config)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertOperation(op), nil
}

// VideoStatus re-requests the state of a video operation by name.
func (c *Client) VideoStatus(ctx context.Context, op *ai.VideoOperation) (*ai.VideoOperation, error) {
	if op == nil || op.Name == "" {
		return nil, errors.New("google: operation name is required")
	}
	next, err := c.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertOperation(next), nil
}

func convertOperation(op *genai.GenerateVideosOperation) *ai.VideoOperation {
	out := &ai.VideoOperation{
		Name:     op.Name,
		Provider: ai.ProviderGoogle,
		Done:     op.Done,
		Error:    operationError(op.Error),
	}
	if op.Response == nil {
		return out
	}
	for _, v := range op.Response.GeneratedVideos {
		if v == nil || v.Video == nil {
			continue
		}
		out.Videos = append(out.Videos, ai.GeneratedVideo{
			URL:      v.Video.URI,
			Data:     v.Video.VideoBytes,
			MIMEType: v.Video.MIMEType,
		})
	}
	if len(out.Videos) == 0 && len(op.Response.RAIMediaFilteredReasons) > 0 && out.Error == "" {
		out.Filtered = op.Response.RAIMediaFilteredReasons
	}
	return out
}
