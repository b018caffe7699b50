package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ImprovePrompt composes the prompt sent for an image improvement.
func ImprovePrompt(original, improvement string) string {
	return fmt.Sprintf("%s. Please improve this image by: %s", original, improvement)
}

// RequestImages generates the configured number of images for a prompt,
// conditioned on req.SourceImage when present. Calls that fail or return no
// payload are dropped; zero results overall is NoContentGenerated.
func (g *Gateway) RequestImages(ctx context.Context, req Request) (*ImageResult, error) {
	if err := requirePrompt(req.Prompt); err != nil {
		return nil, err
	}
	creds, err := g.resolve(req.Provider, req.APIKey, req.Model)
	if err != nil {
		return nil, err
	}
	return g.images(ctx, "images", creds, req.Prompt, req.SourceImage, req.SourceMIME, false)
}

// RequestImageImprovement renders an improved version of an existing image.
// When an Anthropic key is stored, the improvement is first rewritten into a
// single prompt; otherwise the composed prompt is sent as is.
func (g *Gateway) RequestImageImprovement(ctx context.Context, req ImproveRequest) (*ImageResult, error) {
	if strings.TrimSpace(req.OriginalPrompt) == "" || strings.TrimSpace(req.ImprovementPrompt) == "" {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "Both the original prompt and an improvement are required.", ai.ErrEmptyPrompt)
	}
	if len(req.SourceImage) == 0 {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "A source image is required.", nil)
	}
	creds, err := g.resolve(req.Provider, req.APIKey, req.Model)
	if err != nil {
		return nil, err
	}

	prompt := ImprovePrompt(req.OriginalPrompt, req.ImprovementPrompt)
	rewritten := g.rewrite(ctx, req.OriginalPrompt, req.ImprovementPrompt)
	if rewritten != "" {
		prompt = rewritten
	}

	res, err := g.images(ctx, "improve", creds, prompt, req.SourceImage, req.SourceMIME, true)
	if err != nil {
		return nil, err
	}
	if res.EnhancedPrompt == "" {
		res.EnhancedPrompt = rewritten
	}
	return res, nil
}

// rewrite asks the Anthropic enhancer for a merged prompt. It is best effort:
// any failure falls back to the composed prompt.
func (g *Gateway) rewrite(ctx context.Context, original, improvement string) string {
	key := g.current().Credentials.Anthropic
	if key == "" {
		return ""
	}
	b, err := g.backend(ctx, ai.ProviderAnthropic, key)
	if err != nil {
		g.logger.Warn("prompt enhancer unavailable", "error", err)
		return ""
	}
	enhancer, ok := b.(ai.PromptEnhancer)
	if !ok {
		return ""
	}
	out, err := withRetry(ctx, g, "enhance", ai.ProviderAnthropic, func() (string, error) {
		return enhancer.EnhancePrompt(ctx, original, improvement)
	})
	if err != nil {
		g.logger.Warn("prompt enhancement failed", "error", err)
		return ""
	}
	return out
}

// images runs one logical image request. Models that return several images
// per call get one call; single-image models get N concurrent calls.
func (g *Gateway) images(ctx context.Context, op string, creds credentials, prompt string, source []byte, mimeType string, enhance bool) (*ImageResult, error) {
	withSource := len(source) > 0
	m, ok := model.ResolveImage(creds.provider, creds.variant, withSource)
	if !ok {
		return nil, ai.NewFailure(ai.FailureInvalidInput,
			fmt.Sprintf("%s does not offer image generation.", creds.provider),
			&ErrFeatureNotSupported{Provider: creds.provider, Feature: "image"})
	}
	modelID := m.String()

	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("provider", string(creds.provider)),
		attribute.String("model", modelID),
		attribute.Int("count", g.imageCount),
		attribute.Bool("conditioned", withSource),
	))
	defer span.End()

	start := g.emitStart(op, creds.provider, modelID)
	res, err := g.runImages(ctx, op, creds, m, prompt, source, mimeType, enhance)
	g.emitEnd(op, creds.provider, modelID, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("image request failed", "operation", op, "provider", creds.provider,
			"model", modelID, "kind", ai.KindOf(err), "error", err)
		return nil, err
	}
	cost := m.Pricing().Cost(len(res.Items), "")
	span.SetAttributes(
		attribute.Int("items", len(res.Items)),
		attribute.Float64("estimated_cost_usd", cost),
	)
	g.logger.Info("image request complete", "operation", op, "provider", creds.provider,
		"model", modelID, "items", len(res.Items), "estimated_cost_usd", cost)
	return res, nil
}

func (g *Gateway) runImages(ctx context.Context, op string, creds credentials, m model.ImageModel, prompt string, source []byte, mimeType string, enhance bool) (*ImageResult, error) {
	b, err := g.backend(ctx, creds.provider, creds.apiKey)
	if err != nil {
		return nil, err
	}

	var call func(ctx context.Context, count int) (*ai.ImageResponse, error)
	opts := []ai.ImageOption{ai.WithImageModel(m.String())}
	if enhance {
		opts = append(opts, ai.WithPromptEnhancement())
	}
	if len(source) > 0 {
		editor, ok := b.(ai.ImageEditor)
		if !ok {
			return nil, ai.NewFailure(ai.FailureInvalidInput,
				fmt.Sprintf("%s cannot generate from a source image.", creds.provider),
				&ErrFeatureNotSupported{Provider: creds.provider, Feature: "image editing"})
		}
		call = func(ctx context.Context, count int) (*ai.ImageResponse, error) {
			return editor.EditImage(ctx, prompt, source, mimeType, withCount(opts, count)...)
		}
	} else {
		gen, ok := b.(ai.ImageProvider)
		if !ok {
			return nil, ai.NewFailure(ai.FailureInvalidInput,
				fmt.Sprintf("%s does not offer image generation.", creds.provider),
				&ErrFeatureNotSupported{Provider: creds.provider, Feature: "image"})
		}
		call = func(ctx context.Context, count int) (*ai.ImageResponse, error) {
			return gen.GenerateImage(ctx, prompt, withCount(opts, count)...)
		}
	}

	perCall := 1
	if pc, ok := b.(ai.ImagesPerCaller); ok {
		perCall = pc.MaxImagesPerCall(m.String())
	}

	out := g.fanOut(ctx, op, creds.provider, Batches(g.imageCount, perCall), call)
	if len(out.items) > 0 {
		return &ImageResult{
			Items:          out.items,
			EnhancedPrompt: out.enhanced,
			Provider:       creds.provider,
			Model:          m.String(),
		}, nil
	}

	if ctx.Err() != nil {
		return nil, providerFailure(ctx.Err())
	}
	if len(out.errs) == out.calls && out.calls > 0 {
		first := out.errs[0]
		// A lone call, or a key the provider rejected, is a provider
		// failure rather than an empty batch.
		if out.calls == 1 || credentialProblem(first) {
			return nil, providerFailure(first)
		}
	}
	var detail error
	if len(out.errs) > 0 {
		detail = out.errs[0]
	}
	return nil, noContent(detail)
}

type fanOutResult struct {
	items    []ai.ImageItem
	enhanced string
	errs     []error
	calls    int
}

// fanOut issues one call per batch concurrently. Items are kept in arrival
// order; failed or empty slots are dropped.
func (g *Gateway) fanOut(ctx context.Context, op string, p ai.Provider, batches []int, call func(context.Context, int) (*ai.ImageResponse, error)) fanOutResult {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = fanOutResult{calls: len(batches)}
	)

	for i, count := range batches {
		wg.Add(1)
		go func(i, count int) {
			defer wg.Done()
			resp, err := withRetry(ctx, g, op, p, func() (*ai.ImageResponse, error) {
				return call(ctx, count)
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				g.logger.Debug("image call dropped", "operation", op, "call", i, "error", err)
				out.errs = append(out.errs, err)
				return
			}
			if resp == nil {
				return
			}
			for _, img := range resp.Images {
				if item, ok := toItem(img); ok {
					out.items = append(out.items, item)
				}
			}
			if out.enhanced == "" {
				out.enhanced = resp.EnhancedPrompt
			}
		}(i, count)
	}
	wg.Wait()
	return out
}

// Batches splits n requested images into per-call counts of at most perCall.
func Batches(n, perCall int) []int {
	if perCall < 1 {
		perCall = 1
	}
	var out []int
	for n > 0 {
		c := min(n, perCall)
		out = append(out, c)
		n -= c
	}
	return out
}

// withCount copies opts so concurrent calls never share a backing array.
func withCount(opts []ai.ImageOption, count int) []ai.ImageOption {
	out := make([]ai.ImageOption, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, ai.WithImageCount(count))
}

func toItem(img ai.GeneratedImage) (ai.ImageItem, bool) {
	switch {
	case len(img.Data) > 0:
		return ai.NewImageItem(img.Data, img.MIMEType), true
	case img.URL != "":
		return ai.ImageItem{URL: img.URL, MIMEType: img.MIMEType}, true
	}
	return ai.ImageItem{}, false
}
