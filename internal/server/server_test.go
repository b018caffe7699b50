package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/gateway"
	"github.com/spetersoncode/mosaic/settings"
	"github.com/spetersoncode/mosaic/studio"
	"github.com/spetersoncode/mosaic/timeline"
)

type fakeGateway struct {
	mu       sync.Mutex
	err      error
	op       *ai.VideoOperation
	lastReq  gateway.Request
	lastImpr gateway.ImproveRequest
	calls    []string
}

func (f *fakeGateway) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeGateway) RequestImages(ctx context.Context, req gateway.Request) (*gateway.ImageResult, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if err := f.record("images"); err != nil {
		return nil, err
	}
	return &gateway.ImageResult{Items: []ai.ImageItem{
		ai.NewImageItem([]byte("a"), "image/png"),
		ai.NewImageItem([]byte("b"), "image/png"),
	}, EnhancedPrompt: "enhanced"}, nil
}

func (f *fakeGateway) video() *ai.VideoOperation {
	if f.op != nil {
		return f.op
	}
	return &ai.VideoOperation{Name: "operations/1", Provider: ai.ProviderGoogle, Done: true,
		Videos: []ai.GeneratedVideo{{URL: "https://v/1"}}}
}

func (f *fakeGateway) RequestVideos(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error) {
	if err := f.record("videos"); err != nil {
		return nil, err
	}
	return f.video(), nil
}

func (f *fakeGateway) RequestImageToVideo(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if err := f.record("image_to_video"); err != nil {
		return nil, err
	}
	return f.video(), nil
}

func (f *fakeGateway) RequestImageImprovement(ctx context.Context, req gateway.ImproveRequest) (*gateway.ImageResult, error) {
	f.mu.Lock()
	f.lastImpr = req
	f.mu.Unlock()
	if err := f.record("improve"); err != nil {
		return nil, err
	}
	return &gateway.ImageResult{Items: []ai.ImageItem{ai.NewImageItem([]byte("c"), "image/png")}}, nil
}

func (f *fakeGateway) CheckVideo(ctx context.Context, op *ai.VideoOperation, apiKey string) (*ai.VideoOperation, error) {
	if err := f.record("check"); err != nil {
		return nil, err
	}
	return f.video(), nil
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fixture struct {
	srv      *Server
	gw       *fakeGateway
	studio   *studio.Studio
	settings *settings.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := &fakeGateway{}
	st := studio.New(studio.Config{Gateway: gw})
	prefs := settings.New(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	t.Cleanup(func() { _ = st.Shutdown(context.Background()) })
	return &fixture{
		srv:      New(Config{Port: 0, Logger: logger, Gateway: gw, Studio: st, Settings: prefs}),
		gw:       gw,
		studio:   st,
		settings: prefs,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodOptions, "/api/generate-image", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, f.gw.Calls())
}

func TestGenerateImage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/generate-image", map[string]any{
		"prompt":      "a red fox",
		"apiKey":      "k",
		"provider":    "secondary",
		"sourceImage": ai.DataURI([]byte("src"), "image/jpeg"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[imagesResponse](t, rec)
	assert.True(t, body.Success)
	assert.Len(t, body.Items, 2)
	assert.Equal(t, "enhanced", body.EnhancedPrompt)

	assert.Equal(t, ai.ProviderOpenAI, f.gw.lastReq.Provider)
	assert.Equal(t, "k", f.gw.lastReq.APIKey)
	assert.Equal(t, []byte("src"), f.gw.lastReq.SourceImage)
	assert.Equal(t, "image/jpeg", f.gw.lastReq.SourceMIME)
}

func TestGenerateImageFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   ai.FailureKind
	}{
		{name: "missing credentials", err: ai.NewFailure(ai.FailureMissingCredentials, "An API key for google is required.", nil), status: http.StatusUnauthorized, kind: ai.FailureMissingCredentials},
		{name: "invalid input", err: ai.NewFailure(ai.FailureInvalidInput, "Please enter a prompt.", nil), status: http.StatusBadRequest, kind: ai.FailureInvalidInput},
		{name: "no content", err: ai.NewFailure(ai.FailureNoContent, "No images were generated.", nil), status: http.StatusUnprocessableEntity, kind: ai.FailureNoContent},
		{name: "provider error", err: ai.NewFailure(ai.FailureProviderError, "quota", nil), status: http.StatusBadGateway, kind: ai.FailureProviderError},
		{name: "plain error", err: assert.AnError, status: http.StatusBadGateway, kind: ai.FailureProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gw.err = tt.err

			rec := f.do(t, http.MethodPost, "/api/generate-image", map[string]any{"prompt": "x"})
			assert.Equal(t, tt.status, rec.Code)

			body := decodeBody[errorResponse](t, rec)
			assert.False(t, body.Success)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{name: "malformed json", method: http.MethodPost, path: "/api/generate-image", body: "{"},
		{name: "unknown provider", method: http.MethodPost, path: "/api/generate-image", body: `{"prompt":"x","provider":"acme"}`},
		{name: "bad source image", method: http.MethodPost, path: "/api/improve-image", body: `{"originalPrompt":"x","improvementPrompt":"y","sourceImage":"%%"}`},
		{name: "missing operation", method: http.MethodPost, path: "/api/video-status", body: `{}`},
		{name: "unknown kind", method: http.MethodPost, path: "/api/generations", body: `{"prompt":"x","kind":"audio"}`},
		{name: "video with upload", method: http.MethodPost, path: "/api/generations", body: `{"prompt":"x","kind":"video","sourceImage":"aGk="}`},
		{name: "locate without index", method: http.MethodGet, path: "/api/media/locate?generation=g"},
		{name: "cancel unknown", method: http.MethodDelete, path: "/api/generations/nope"},
		{name: "unknown media", method: http.MethodPost, path: "/api/media/nope:0/video"},
		{name: "bad settings provider", method: http.MethodPut, path: "/api/settings", body: `{"provider":"acme"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			f.srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decodeBody[errorResponse](t, rec)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
		})
	}
	assert.Empty(t, f.gw.Calls())
}

func TestVideoRoutes(t *testing.T) {
	t.Run("generate video", func(t *testing.T) {
		f := newFixture(t)
		f.gw.op = &ai.VideoOperation{Name: "operations/1", Provider: ai.ProviderGoogle}

		rec := f.do(t, http.MethodPost, "/api/generate-video", map[string]any{"prompt": "waves"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[videoResponse](t, rec)
		assert.False(t, body.Done)
		assert.Equal(t, "operations/1", body.Operation.Name)
		assert.Empty(t, body.Videos)
		assert.Equal(t, []string{"videos"}, f.gw.Calls())
	})

	t.Run("source image animates", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/api/generate-video", map[string]any{"prompt": "waves", "sourceImage": "aGk="})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"image_to_video"}, f.gw.Calls())
		assert.Equal(t, []byte("hi"), f.gw.lastReq.SourceImage)
	})

	t.Run("status", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(t, http.MethodPost, "/api/video-status", map[string]any{
			"operation": map[string]any{"name": "operations/1", "provider": "google"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody[videoResponse](t, rec)
		assert.True(t, body.Done)
		assert.Equal(t, []string{"https://v/1"}, body.Videos)
	})

	t.Run("status timeout", func(t *testing.T) {
		f := newFixture(t)
		f.gw.err = ai.NewFailure(ai.FailureTimeout, "Video generation timed out.", nil)
		rec := f.do(t, http.MethodPost, "/api/video-status", map[string]any{
			"operation": map[string]any{"name": "operations/1"},
		})
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})
}

func TestImproveImage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/improve-image", map[string]any{
		"originalPrompt":    "a fox",
		"improvementPrompt": "sharper",
		"sourceImage":       "aGk=",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a fox", f.gw.lastImpr.OriginalPrompt)
	assert.Equal(t, "sharper", f.gw.lastImpr.ImprovementPrompt)
	assert.Equal(t, []byte("hi"), f.gw.lastImpr.SourceImage)
}

func waitSettled(t *testing.T, st *studio.Studio) {
	t.Helper()
	require.Eventually(t, func() bool { return st.Running() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/generations", map[string]any{"prompt": "a fox"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decodeBody[acceptedResponse](t, rec).ID
	require.NotEmpty(t, id)
	waitSettled(t, f.studio)

	rec = f.do(t, http.MethodGet, "/api/generations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeBody[[]generationResponse](t, rec)
	require.Len(t, records, 1)
	assert.Equal(t, timeline.KindImage, records[0].Kind)
	require.Len(t, records[0].Images, 2)
	assert.Equal(t, ai.DataURI([]byte("a"), "image/png"), records[0].Images[0].URL)
	assert.NotContains(t, rec.Body.String(), "rawBytes")

	rec = f.do(t, http.MethodGet, "/api/media", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)

	rec = f.do(t, http.MethodGet, "/api/media/locate?generation="+id+"&index=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"index":1}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/media/locate?generation=missing&index=0", nil)
	assert.JSONEq(t, `{"index":-1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/media/"+items[0].ID+"/video", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSettled(t, f.studio)

	rec = f.do(t, http.MethodPost, "/api/media/"+items[1].ID+"/improve", map[string]any{"improvementPrompt": "sharper"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitSettled(t, f.studio)

	assert.Len(t, f.studio.Generations(), 3)
	assert.Equal(t, []string{"images", "image_to_video", "improve"}, f.gw.Calls())
}

func TestSessionUploadKeepsMIMEType(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/generations", map[string]any{
		"prompt":      "a red fox",
		"kind":        "image",
		"sourceImage": ai.DataURI([]byte("jpegbytes"), "image/jpeg"),
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	waitSettled(t, f.studio)

	f.gw.mu.Lock()
	defer f.gw.mu.Unlock()
	assert.Equal(t, []byte("jpegbytes"), f.gw.lastReq.SourceImage)
	assert.Equal(t, "image/jpeg", f.gw.lastReq.SourceMIME)
}

func TestSessionValidation(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/generations", map[string]any{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.studio.Generations())
}

func TestSampleRejectedForVideo(t *testing.T) {
	f := newFixture(t)
	f.studio.Seed(studio.Sample{Prompt: "demo", URLs: []string{"/samples/1.png"}})
	id := f.studio.Media()[0].ID

	rec := f.do(t, http.MethodPost, "/api/media/"+id+"/video", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ai.FailureUnsupportedSource, decodeBody[errorResponse](t, rec).Kind)
	assert.Empty(t, f.gw.Calls())
}

func TestSettingsRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/settings", map[string]any{
		"provider":     "secondary",
		"modelVariant": "dall-e-3",
		"apiKeys":      map[string]string{"openai": "sk-test-abcd"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody[settingsResponse](t, rec)
	assert.Equal(t, ai.ProviderOpenAI, body.Provider)
	assert.Equal(t, "dall-e-3", body.ModelVariant)
	assert.Equal(t, settings.Mask("sk-test-abcd"), body.APIKeys[ai.ProviderOpenAI])
	assert.NotContains(t, rec.Body.String(), "sk-test-abcd")

	rec = f.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.ProviderOpenAI, decodeBody[settingsResponse](t, rec).Provider)
	assert.Equal(t, "sk-test-abcd", f.settings.APIKey(ai.ProviderOpenAI))
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var types []string
	for len(types) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			types = append(types, strings.TrimSpace(after))
		}
	}
	assert.Equal(t, []string{"RUN_STARTED", "STATE_SNAPSHOT"}, types)
}

// nextEvent reads one SSE frame and returns its type and data.
func nextEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var typ, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" && typ != "" {
			return typ, data
		}
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			typ = after
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			data = after
		}
	}
}

func TestEventsStreamSettingsChange(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	typ, _ := nextEvent(t, reader)
	require.Equal(t, "RUN_STARTED", typ)
	typ, data := nextEvent(t, reader)
	require.Equal(t, "STATE_SNAPSHOT", typ)
	assert.Contains(t, data, `"preferences"`)

	rec := f.do(t, http.MethodPut, "/api/settings", map[string]any{
		"provider": "openai",
		"apiKeys":  map[string]string{"openai": "sk-test-abcd"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	typ, data = nextEvent(t, reader)
	require.Equal(t, "STATE_SNAPSHOT", typ)
	assert.Contains(t, data, `"provider":"openai"`)
	assert.Contains(t, data, `"configured":["openai"]`)
	assert.NotContains(t, data, "sk-test-abcd")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind ai.FailureKind
		want int
	}{
		{ai.FailureMissingCredentials, http.StatusUnauthorized},
		{ai.FailureInvalidInput, http.StatusBadRequest},
		{ai.FailureUnsupportedSource, http.StatusBadRequest},
		{ai.FailureNoContent, http.StatusUnprocessableEntity},
		{ai.FailureTimeout, http.StatusGatewayTimeout},
		{ai.FailureProviderError, http.StatusBadGateway},
		{ai.FailureCancelled, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.kind))
		})
	}
}
