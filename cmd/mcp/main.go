// Command mcp serves the mosaic studio to MCP clients over stdio.
//
// It reads the same configuration as the HTTP server. Logs go to stderr so
// stdout stays reserved for the protocol.
//
// Configuration for Claude Desktop (~/Library/Application Support/Claude/claude_desktop_config.json):
//
//	{
//	    "mcpServers": {
//	        "mosaic": {
//	            "command": "go",
//	            "args": ["run", "./cmd/mcp"],
//	            "cwd": "/path/to/mosaic",
//	            "env": {"GOOGLE_API_KEY": "..."}
//	        }
//	    }
//	}
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/spetersoncode/mosaic/internal/app"
	"github.com/spetersoncode/mosaic/internal/config"
	"github.com/spetersoncode/mosaic/mcp"
)

func main() {
	cfg, err := config.Load(os.Getenv("MOSAIC_CONFIG"))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	err = mcp.ServeStdio(a.Studio,
		mcp.WithName("mosaic"),
		mcp.WithVersion("1.0.0"),
	)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if serr := a.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("shutdown incomplete", "error", serr)
	}
	if err != nil {
		log.Fatal(err)
	}
}
