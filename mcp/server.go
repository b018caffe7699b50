package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/mosaic/studio"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name         string
	version      string
	instructions string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithInstructions replaces the usage hint sent to clients on initialize.
func WithInstructions(text string) ServerOption {
	return func(c *serverConfig) {
		c.instructions = text
	}
}

const defaultInstructions = "Generate images and videos from prompts. " +
	"Use list_generations or the mosaic://media resource to find item ids, " +
	"then pass them to image_to_video or improve_image. Sample items cannot be converted."

// NewServer creates an MCP server exposing the studio workflows as tools.
// Tool calls block until the generation they start has finished.
//
// Example:
//
//	st := studio.New(studio.Config{Gateway: gw})
//	s := mcp.NewServer(st, mcp.WithName("mosaic"))
//	server.ServeStdio(s)
func NewServer(st *studio.Studio, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:         "mosaic-mcp-server",
		version:      "1.0.0",
		instructions: defaultInstructions,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(cfg.instructions),
	)

	h := &handlers{studio: st}
	s.AddTool(generateImagesTool, h.generateImages)
	s.AddTool(generateVideoTool, h.generateVideo)
	s.AddTool(imageToVideoTool, h.imageToVideo)
	s.AddTool(improveImageTool, h.improveImage)
	s.AddTool(listGenerationsTool, h.listGenerations)
	s.AddResource(mediaResource, h.readMedia)
	s.AddResource(noticeResource, h.readNotice)
	return s
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
func ServeStdio(st *studio.Studio, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(st, opts...))
}
