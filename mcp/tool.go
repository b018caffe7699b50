// Package mcp exposes the studio over the Model Context Protocol, so MCP
// clients can generate and refine media as tool calls.
//
// Tools:
//
//   - generate_images: text (and optional source image) to images
//   - generate_video: text to video, polled to completion
//   - image_to_video: animate an image from the timeline
//   - improve_image: refine an image from the timeline
//   - list_generations: the timeline, newest first
//
// Serve over stdio for subprocess-based clients:
//
//	if err := mcp.ServeStdio(st); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/media"
	"github.com/spetersoncode/mosaic/studio"
	"github.com/spetersoncode/mosaic/timeline"
)

var (
	generateImagesTool = mcp.NewTool("generate_images",
		mcp.WithDescription("Generate images from a text prompt, optionally conditioned on a source image"),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate")),
		mcp.WithString("source_image", mcp.Description("Optional source image as base64 or a data URI")),
	)

	generateVideoTool = mcp.NewTool("generate_video",
		mcp.WithDescription("Generate videos from a text prompt. Blocks until the provider finishes."),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("What to generate")),
	)

	imageToVideoTool = mcp.NewTool("image_to_video",
		mcp.WithDescription("Animate a generated image into videos"),
		mcp.WithString("media_id", mcp.Required(), mcp.Description("Item id from list_generations, e.g. <generation>:0")),
	)

	improveImageTool = mcp.NewTool("improve_image",
		mcp.WithDescription("Refine a generated image with an improvement instruction"),
		mcp.WithString("media_id", mcp.Required(), mcp.Description("Item id from list_generations")),
		mcp.WithString("improvement", mcp.Required(), mcp.Description("How the image should change")),
	)

	listGenerationsTool = mcp.NewTool("list_generations",
		mcp.WithDescription("List generations newest first, with their item ids"),
	)
)

type handlers struct {
	studio *studio.Studio
}

// Summary is the tool result for one generation.
type Summary struct {
	ID        string        `json:"id"`
	Kind      timeline.Kind `json:"kind"`
	Prompt    string        `json:"prompt"`
	CreatedAt time.Time     `json:"createdAt"`
	Items     []ItemSummary `json:"items"`
}

// ItemSummary describes one item. Image data is returned as image content,
// so URL is only set for remote media.
type ItemSummary struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	IsSample bool   `json:"isSample,omitempty"`
}

func summarize(rec timeline.Record) Summary {
	s := Summary{ID: rec.ID, Kind: rec.Kind, Prompt: rec.Prompt, CreatedAt: rec.CreatedAt, Items: []ItemSummary{}}
	for _, it := range media.Flatten([]timeline.Record{rec}) {
		is := ItemSummary{ID: it.ID, IsSample: it.IsSample}
		if !it.HasBytes() {
			is.URL = it.URL
		}
		s.Items = append(s.Items, is)
	}
	return s
}

func (h *handlers) generateImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var (
		source   []byte
		mimeType string
	)
	if raw := req.GetString("source_image", ""); raw != "" {
		source, mimeType, err = ai.DecodeImage(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid source_image: %v", err)), nil
		}
	}
	return h.run(ctx, func() (*studio.Job, error) {
		return h.studio.GenerateImages(ctx, prompt, source, mimeType)
	})
}

func (h *handlers) generateVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.run(ctx, func() (*studio.Job, error) {
		return h.studio.GenerateVideo(ctx, prompt)
	})
}

func (h *handlers) imageToVideo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("media_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.run(ctx, func() (*studio.Job, error) {
		return h.studio.ImageToVideo(ctx, id)
	})
}

func (h *handlers) improveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("media_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	improvement, err := req.RequireString("improvement")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.run(ctx, func() (*studio.Job, error) {
		return h.studio.ImproveImage(ctx, id, improvement)
	})
}

func (h *handlers) listGenerations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records := h.studio.Generations()
	out := make([]Summary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	return jsonResult(out)
}

// run starts a job and waits for it. If the client goes away the job is
// cancelled so its placeholder does not linger.
func (h *handlers) run(ctx context.Context, start func() (*studio.Job, error)) (*mcp.CallToolResult, error) {
	job, err := start()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := job.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			job.Cancel()
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, ok := h.studio.Timeline().Get(job.ID)
	if !ok {
		return mcp.NewToolResultError("generation no longer exists"), nil
	}
	res, err := jsonResult(summarize(rec))
	if err != nil {
		return nil, err
	}
	for _, img := range rec.Images {
		if img.HasBytes() {
			res.Content = append(res.Content, mcp.NewImageContent(
				base64.StdEncoding.EncodeToString(img.RawBytes), img.MIMEType))
		}
	}
	return res, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
