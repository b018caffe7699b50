package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/gateway"
	"github.com/spetersoncode/mosaic/studio"
)

// stubGateway returns two images per request and finished videos.
type stubGateway struct {
	imageErr error

	mu      sync.Mutex
	lastReq gateway.Request
}

func (s *stubGateway) RequestImages(ctx context.Context, req gateway.Request) (*gateway.ImageResult, error) {
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	return &gateway.ImageResult{Items: []ai.ImageItem{
		ai.NewImageItem([]byte("one"), "image/png"),
		ai.NewImageItem([]byte("two"), "image/png"),
	}}, nil
}

func (s *stubGateway) RequestVideos(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error) {
	return &ai.VideoOperation{Name: "op", Done: true, Videos: []ai.GeneratedVideo{{URL: "https://v/1"}}}, nil
}

func (s *stubGateway) RequestImageToVideo(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error) {
	return s.RequestVideos(ctx, req)
}

func (s *stubGateway) RequestImageImprovement(ctx context.Context, req gateway.ImproveRequest) (*gateway.ImageResult, error) {
	res, err := s.RequestImages(ctx, gateway.Request{})
	if err != nil {
		return nil, err
	}
	res.EnhancedPrompt = "a sharper fox"
	return res, nil
}

func (s *stubGateway) CheckVideo(ctx context.Context, op *ai.VideoOperation, apiKey string) (*ai.VideoOperation, error) {
	return op, nil
}

func newClient(t *testing.T, st *studio.Studio) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(NewServer(st, WithName("test-server"), WithVersion("1.0.0")))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return res
}

func summaryOf(t *testing.T, res *mcp.CallToolResult) Summary {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var s Summary
	require.NoError(t, json.Unmarshal([]byte(text.Text), &s))
	return s
}

func TestServerListsTools(t *testing.T) {
	c := newClient(t, studio.New(studio.Config{Gateway: &stubGateway{}}))

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{
		"generate_images", "generate_video", "image_to_video", "improve_image", "list_generations",
	}, names)
}

func TestGenerateImagesTool(t *testing.T) {
	st := studio.New(studio.Config{Gateway: &stubGateway{}})
	c := newClient(t, st)

	res := call(t, c, "generate_images", map[string]any{"prompt": "a red fox"})
	require.False(t, res.IsError)

	s := summaryOf(t, res)
	assert.Equal(t, "a red fox", s.Prompt)
	require.Len(t, s.Items, 2)
	assert.Empty(t, s.Items[0].URL)
	require.Len(t, res.Content, 3)
	img, ok := res.Content[1].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestGenerateImagesSourceMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantMIME string
	}{
		{name: "jpeg data uri", source: ai.DataURI([]byte("jpegbytes"), "image/jpeg"), wantMIME: "image/jpeg"},
		{name: "webp data uri", source: ai.DataURI([]byte("jpegbytes"), "image/webp"), wantMIME: "image/webp"},
		{name: "bare base64 defaults to png", source: base64.StdEncoding.EncodeToString([]byte("jpegbytes")), wantMIME: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{}
			c := newClient(t, studio.New(studio.Config{Gateway: gw}))

			res := call(t, c, "generate_images", map[string]any{"prompt": "a red fox", "source_image": tt.source})
			require.False(t, res.IsError)

			gw.mu.Lock()
			defer gw.mu.Unlock()
			assert.Equal(t, []byte("jpegbytes"), gw.lastReq.SourceImage)
			assert.Equal(t, tt.wantMIME, gw.lastReq.SourceMIME)
		})
	}
}

func TestWorkflowTools(t *testing.T) {
	st := studio.New(studio.Config{Gateway: &stubGateway{}})
	c := newClient(t, st)

	src := summaryOf(t, call(t, c, "generate_images", map[string]any{"prompt": "a fox"}))
	itemID := src.Items[0].ID

	t.Run("image to video", func(t *testing.T) {
		res := call(t, c, "image_to_video", map[string]any{"media_id": itemID})
		require.False(t, res.IsError)
		s := summaryOf(t, res)
		assert.Equal(t, "a fox - animated video", s.Prompt)
		require.Len(t, s.Items, 1)
		assert.Equal(t, "https://v/1", s.Items[0].URL)
	})

	t.Run("improve image", func(t *testing.T) {
		res := call(t, c, "improve_image", map[string]any{"media_id": itemID, "improvement": "sharper"})
		require.False(t, res.IsError)
		assert.Equal(t, "a sharper fox", summaryOf(t, res).Prompt)
	})

	t.Run("generate video", func(t *testing.T) {
		res := call(t, c, "generate_video", map[string]any{"prompt": "waves"})
		require.False(t, res.IsError)
		assert.Equal(t, "waves", summaryOf(t, res).Prompt)
	})

	t.Run("list generations", func(t *testing.T) {
		res := call(t, c, "list_generations", map[string]any{})
		require.False(t, res.IsError)
		text, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		var out []Summary
		require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
		require.Len(t, out, 4)
		assert.Equal(t, "waves", out[0].Prompt)
		assert.Equal(t, "a fox", out[3].Prompt)
	})
}

func TestToolErrors(t *testing.T) {
	tests := []struct {
		name string
		gw   *stubGateway
		tool string
		args map[string]any
	}{
		{name: "missing prompt", gw: &stubGateway{}, tool: "generate_images", args: map[string]any{}},
		{name: "blank prompt", gw: &stubGateway{}, tool: "generate_video", args: map[string]any{"prompt": " "}},
		{name: "bad source image", gw: &stubGateway{}, tool: "generate_images", args: map[string]any{"prompt": "x", "source_image": "%%%"}},
		{name: "unknown media", gw: &stubGateway{}, tool: "image_to_video", args: map[string]any{"media_id": "nope:0"}},
		{name: "missing improvement", gw: &stubGateway{}, tool: "improve_image", args: map[string]any{"media_id": "nope:0"}},
		{name: "provider failure", gw: &stubGateway{imageErr: ai.NewFailure(ai.FailureNoContent, "No images were generated.", nil)}, tool: "generate_images", args: map[string]any{"prompt": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, studio.New(studio.Config{Gateway: tt.gw}))
			res := call(t, c, tt.tool, tt.args)
			assert.True(t, res.IsError)
		})
	}
}

func TestResources(t *testing.T) {
	gw := &stubGateway{}
	st := studio.New(studio.Config{Gateway: gw})
	c := newClient(t, st)

	listed, err := c.ListResources(context.Background(), mcp.ListResourcesRequest{})
	require.NoError(t, err)
	uris := make([]string, len(listed.Resources))
	for i, r := range listed.Resources {
		uris[i] = r.URI
	}
	assert.ElementsMatch(t, []string{mediaURI, noticeURI}, uris)

	h := &handlers{studio: st}
	read := func(fn func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)) string {
		t.Helper()
		contents, err := fn(context.Background(), mcp.ReadResourceRequest{})
		require.NoError(t, err)
		require.Len(t, contents, 1)
		text, ok := contents[0].(mcp.TextResourceContents)
		require.True(t, ok)
		return text.Text
	}

	assert.JSONEq(t, `[]`, read(h.readMedia))
	assert.JSONEq(t, `null`, read(h.readNotice))

	call(t, c, "generate_images", map[string]any{"prompt": "a fox"})
	var items []ItemSummary
	require.NoError(t, json.Unmarshal([]byte(read(h.readMedia)), &items))
	require.Len(t, items, 2)
	assert.Empty(t, items[0].URL)

	gw.imageErr = ai.NewFailure(ai.FailureNoContent, "No images were generated.", nil)
	call(t, c, "generate_images", map[string]any{"prompt": "again"})
	var n studio.Notice
	require.NoError(t, json.Unmarshal([]byte(read(h.readNotice)), &n))
	assert.Equal(t, ai.FailureNoContent, n.Kind)
}
