package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/mosaic"
)

// DefaultModel is the model used to rewrite improvement prompts.
const DefaultModel = anthropic.ModelClaudeHaiku4_5

const enhanceSystemPrompt = `You rewrite image-editing requests into a single image generation prompt.
Combine the original prompt with the requested improvement. Keep the subject and
composition of the original unless the improvement changes them. Reply with the
prompt only, no preamble and no quotes.`

var errEmptyCompletion = errors.New("anthropic: empty completion")

// Client wraps the Anthropic SDK to rewrite improvement prompts.
type Client struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// ClientOption configures the Anthropic client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	baseURL    string
	model      anthropic.Model
}

// WithModel sets the model used for prompt rewriting.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = anthropic.Model(model)
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	client := anthropic.NewClient(reqOpts...)
	return &Client{client: &client, model: cfg.model, maxTokens: 512}
}

// EnhancePrompt merges an original prompt and an improvement request into one
// generation prompt.
func (c *Client) EnhancePrompt(ctx context.Context, original, improvement string) (string, error) {
	msg := fmt.Sprintf("Original prompt: %s\nImprovement: %s", original, improvement)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: enhanceSystemPrompt}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(msg))},
	})
	if err != nil {
		return "", wrapError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", errEmptyCompletion
	}
	return out, nil
}

var _ ai.PromptEnhancer = (*Client)(nil)
