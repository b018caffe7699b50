package gateway

import (
	"context"
	"sync"
	"testing"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/internal/provider/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVideo struct {
	start    *ai.VideoOperation
	statuses []*ai.VideoOperation

	mu      sync.Mutex
	opts    *ai.VideoOptions
	prompt  string
	checked int
}

func (f *fakeVideo) GenerateVideo(ctx context.Context, prompt string, opts ...ai.VideoOption) (*ai.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompt = prompt
	f.opts = ai.ApplyVideoOptions(opts...)
	return f.start, nil
}

func (f *fakeVideo) VideoStatus(ctx context.Context, op *ai.VideoOperation) (*ai.VideoOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.statuses[f.checked]
	f.checked++
	return next, nil
}

func pending() *ai.VideoOperation {
	return &ai.VideoOperation{Name: "operations/op1", Provider: ai.ProviderGoogle}
}

func finished(urls ...string) *ai.VideoOperation {
	op := &ai.VideoOperation{Name: "operations/op1", Provider: ai.ProviderGoogle, Done: true}
	for _, u := range urls {
		op.Videos = append(op.Videos, ai.GeneratedVideo{URL: u})
	}
	return op
}

func TestRequestVideos(t *testing.T) {
	fake := &fakeVideo{start: pending()}
	g, _ := newGateway(t, googleSettings(), map[ai.Provider]Backend{ai.ProviderGoogle: fake})

	op, err := g.RequestVideos(context.Background(), Request{Prompt: "a city skyline"})
	require.NoError(t, err)
	assert.False(t, op.Done)
	assert.Equal(t, "operations/op1", op.Name)
	assert.Equal(t, "a city skyline", fake.prompt)
	assert.Equal(t, 2, fake.opts.Count)
	assert.Equal(t, "veo-2.0-generate-001", fake.opts.Model)
	assert.Empty(t, fake.opts.SourceImage)
}

func TestRequestVideosDefaultsToGoogle(t *testing.T) {
	fake := &fakeVideo{start: pending()}
	s := googleSettings()
	s.Provider = ai.ProviderOpenAI
	g, calls := newGateway(t, s, map[ai.Provider]Backend{ai.ProviderGoogle: fake})

	_, err := g.RequestVideos(context.Background(), Request{Prompt: "a city skyline"})
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderGoogle, (*calls)[0].provider)
}

func TestRequestVideosUnsupportedProvider(t *testing.T) {
	s := googleSettings()
	s.Credentials.OpenAI = "openai-key"
	g, _ := newGateway(t, s, map[ai.Provider]Backend{ai.ProviderOpenAI: openai.New("openai-key")})

	_, err := g.RequestVideos(context.Background(), Request{Prompt: "a city skyline", Provider: ai.ProviderOpenAI})
	require.Error(t, err)
	assert.Equal(t, ai.FailureInvalidInput, ai.KindOf(err))
}

func TestRequestImageToVideo(t *testing.T) {
	t.Run("seeds source and fixed count", func(t *testing.T) {
		fake := &fakeVideo{start: pending()}
		g, _ := newGateway(t, googleSettings(), map[ai.Provider]Backend{ai.ProviderGoogle: fake})

		_, err := g.RequestImageToVideo(context.Background(), Request{
			Prompt:      AnimatePrompt("a red fox"),
			SourceImage: []byte("src"),
			SourceMIME:  "image/jpeg",
		})
		require.NoError(t, err)
		assert.Equal(t, "a red fox - animated video", fake.prompt)
		assert.Equal(t, ImageToVideoCount, fake.opts.Count)
		assert.Equal(t, []byte("src"), fake.opts.SourceImage)
		assert.Equal(t, "image/jpeg", fake.opts.SourceMIME)
	})

	t.Run("requires source image", func(t *testing.T) {
		g, calls := newGateway(t, googleSettings(), nil)
		_, err := g.RequestImageToVideo(context.Background(), Request{Prompt: "a red fox"})
		assert.Equal(t, ai.FailureInvalidInput, ai.KindOf(err))
		assert.Empty(t, *calls)
	})

	t.Run("missing credentials", func(t *testing.T) {
		g, calls := newGateway(t, settingsWithoutKeys(), nil)
		_, err := g.RequestImageToVideo(context.Background(), Request{Prompt: "a red fox", SourceImage: []byte("src")})
		assert.Equal(t, ai.FailureMissingCredentials, ai.KindOf(err))
		assert.Empty(t, *calls)
	})
}

func TestCheckVideo(t *testing.T) {
	tests := []struct {
		name     string
		status   *ai.VideoOperation
		wantDone bool
		wantURLs []string
		wantKind ai.FailureKind
	}{
		{name: "still pending", status: pending()},
		{name: "done with videos", status: finished("https://v/1", "https://v/2"), wantDone: true, wantURLs: []string{"https://v/1", "https://v/2"}},
		{name: "done with error", status: &ai.VideoOperation{Name: "operations/op1", Done: true, Error: "prompt rejected"}, wantKind: ai.FailureProviderError},
		{name: "done but empty", status: &ai.VideoOperation{Name: "operations/op1", Done: true, Filtered: []string{"unsafe"}}, wantKind: ai.FailureNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeVideo{statuses: []*ai.VideoOperation{tt.status}}
			g, _ := newGateway(t, googleSettings(), map[ai.Provider]Backend{ai.ProviderGoogle: fake})

			op, err := g.CheckVideo(context.Background(), pending(), "")
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, ai.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDone, op.Done)
			assert.Equal(t, tt.wantURLs, op.VideoURLs())
			assert.Equal(t, ai.ProviderGoogle, op.Provider)
		})
	}
}

func TestCheckVideoRequiresHandle(t *testing.T) {
	g, calls := newGateway(t, googleSettings(), nil)
	_, err := g.CheckVideo(context.Background(), &ai.VideoOperation{}, "")
	assert.Equal(t, ai.FailureInvalidInput, ai.KindOf(err))
	assert.Empty(t, *calls)
}

func TestSettleImmediateResult(t *testing.T) {
	fake := &fakeVideo{start: finished("https://v/1")}
	g, _ := newGateway(t, googleSettings(), map[ai.Provider]Backend{ai.ProviderGoogle: fake})

	op, err := g.RequestVideos(context.Background(), Request{Prompt: "a city skyline"})
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, []string{"https://v/1"}, op.VideoURLs())
}
