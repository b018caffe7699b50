package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ImageToVideoCount is the fixed number of videos an image-to-video request asks for.
const ImageToVideoCount = 2

// AnimatePrompt derives the prompt for turning an image into a video.
func AnimatePrompt(prompt string) string {
	return prompt + " - animated video"
}

// RequestVideos starts a text-to-video operation. The returned operation is
// usually pending and must be driven to completion with CheckVideo.
func (g *Gateway) RequestVideos(ctx context.Context, req Request) (*ai.VideoOperation, error) {
	if err := requirePrompt(req.Prompt); err != nil {
		return nil, err
	}
	creds, err := g.resolve(videoProvider(req.Provider), req.APIKey, req.Model)
	if err != nil {
		return nil, err
	}
	return g.startVideo(ctx, "videos", creds, req.Prompt, g.videoCount, nil, "")
}

// RequestImageToVideo starts a video operation seeded with image bytes.
func (g *Gateway) RequestImageToVideo(ctx context.Context, req Request) (*ai.VideoOperation, error) {
	if err := requirePrompt(req.Prompt); err != nil {
		return nil, err
	}
	if len(req.SourceImage) == 0 {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "A source image is required.", nil)
	}
	creds, err := g.resolve(videoProvider(req.Provider), req.APIKey, req.Model)
	if err != nil {
		return nil, err
	}
	return g.startVideo(ctx, "image_to_video", creds, req.Prompt, ImageToVideoCount, req.SourceImage, req.SourceMIME)
}

// CheckVideo re-requests the status of a video operation. It is not retried;
// the poller owns the re-check schedule. A finished operation with no videos
// is NoContentGenerated.
func (g *Gateway) CheckVideo(ctx context.Context, op *ai.VideoOperation, apiKey string) (*ai.VideoOperation, error) {
	if op == nil || op.Name == "" {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "An operation handle is required.", nil)
	}
	creds, err := g.resolve(videoProvider(op.Provider), apiKey, "")
	if err != nil {
		return nil, err
	}
	vp, err := g.videoBackend(ctx, creds)
	if err != nil {
		return nil, err
	}

	next, err := vp.VideoStatus(ctx, op)
	if err != nil {
		return nil, providerFailure(err)
	}
	if next.Provider == "" {
		next.Provider = creds.provider
	}
	return settle(next)
}

// videoProvider defaults video calls to Google, the only video backend,
// regardless of the stored image provider.
func videoProvider(p ai.Provider) ai.Provider {
	if p == "" {
		return ai.ProviderGoogle
	}
	return p
}

func (g *Gateway) videoBackend(ctx context.Context, creds credentials) (ai.VideoProvider, error) {
	b, err := g.backend(ctx, creds.provider, creds.apiKey)
	if err != nil {
		return nil, err
	}
	vp, ok := b.(ai.VideoProvider)
	if !ok {
		return nil, ai.NewFailure(ai.FailureInvalidInput,
			fmt.Sprintf("%s does not offer video generation.", creds.provider),
			&ErrFeatureNotSupported{Provider: creds.provider, Feature: "video"})
	}
	return vp, nil
}

func (g *Gateway) startVideo(ctx context.Context, op string, creds credentials, prompt string, count int, source []byte, mimeType string) (*ai.VideoOperation, error) {
	m, ok := model.ResolveVideo(creds.provider, creds.variant)
	if !ok {
		return nil, ai.NewFailure(ai.FailureInvalidInput,
			fmt.Sprintf("%s does not offer video generation.", creds.provider),
			&ErrFeatureNotSupported{Provider: creds.provider, Feature: "video"})
	}
	if max := m.MaxVideos(); max > 0 && count > max {
		count = max
	}

	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("provider", string(creds.provider)),
		attribute.String("model", m.String()),
		attribute.Int("count", count),
	))
	defer span.End()

	start := g.emitStart(op, creds.provider, m.String())
	result, err := g.submitVideo(ctx, op, creds, m, prompt, count, source, mimeType)
	g.emitEnd(op, creds.provider, m.String(), start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("video request failed", "operation", op, "provider", creds.provider,
			"model", m.String(), "kind", ai.KindOf(err), "error", err)
		return nil, err
	}
	cost := m.Pricing().Cost(count)
	span.SetAttributes(
		attribute.String("operation.name", result.Name),
		attribute.Float64("estimated_cost_usd", cost),
	)
	g.logger.Info("video operation started", "operation", op, "name", result.Name,
		"done", result.Done, "estimated_cost_usd", cost)
	return result, nil
}

func (g *Gateway) submitVideo(ctx context.Context, op string, creds credentials, m model.VideoModel, prompt string, count int, source []byte, mimeType string) (*ai.VideoOperation, error) {
	vp, err := g.videoBackend(ctx, creds)
	if err != nil {
		return nil, err
	}

	opts := []ai.VideoOption{ai.WithVideoModel(m.String()), ai.WithVideoCount(count)}
	if len(source) > 0 {
		opts = append(opts, ai.WithSourceImage(source, mimeType))
	}

	result, err := withRetry(ctx, g, op, creds.provider, func() (*ai.VideoOperation, error) {
		return vp.GenerateVideo(ctx, prompt, opts...)
	})
	if err != nil {
		return nil, providerFailure(err)
	}
	if result.Provider == "" {
		result.Provider = creds.provider
	}
	return settle(result)
}

// settle converts a finished operation into its terminal outcome. Pending
// operations pass through unchanged.
func settle(op *ai.VideoOperation) (*ai.VideoOperation, error) {
	if !op.Done {
		return op, nil
	}
	if op.Error != "" {
		return nil, ai.NewFailure(ai.FailureProviderError, op.Error, nil)
	}
	if len(op.VideoURLs()) == 0 {
		var detail error
		if len(op.Filtered) > 0 {
			detail = errors.New(strings.Join(op.Filtered, "; "))
		}
		return nil, ai.NewFailure(ai.FailureNoContent, "No videos were generated. Try a different prompt.", detail)
	}
	return op, nil
}
