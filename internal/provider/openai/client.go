package openai

import (
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/mosaic"
)

// Client wraps the OpenAI SDK for gpt-image and DALL-E models.
type Client struct {
	client *openai.Client
}

type clientConfig struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*clientConfig)

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

// New creates a new OpenAI client with the given API key. SDK retries are
// disabled; callers own the retry policy.
func New(apiKey string, opts ...ClientOption) *Client {
	var cfg clientConfig
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

	client := openai.NewClient(reqOpts...)
	return &Client{client: &client}
}

var _ ai.ImageProvider = (*Client)(nil)
var _ ai.ImageEditor = (*Client)(nil)
var _ ai.ImagesPerCaller = (*Client)(nil)
