// Command server runs the mosaic HTTP API.
//
// Configuration comes from config.yaml (or the file named by MOSAIC_CONFIG),
// MOSAIC_-prefixed environment variables and a .env file. Provider keys are
// read from GOOGLE_API_KEY, OPENAI_API_KEY and ANTHROPIC_API_KEY.
//
//	go run ./cmd/server
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/mosaic/internal/app"
	"github.com/spetersoncode/mosaic/internal/config"
	"github.com/spetersoncode/mosaic/internal/server"
	"github.com/spetersoncode/mosaic/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("MOSAIC_CONFIG"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTracer, err := telemetry.InitTracer("mosaic", logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			logger.Warn("studio shutdown incomplete", "error", err)
		}
	}()

	srv := server.New(server.Config{
		Port:     cfg.Server.Port,
		Logger:   logger,
		Gateway:  a.Gateway,
		Studio:   a.Studio,
		Settings: a.Settings,
		Hub:      a.Hub,
	})
	return srv.Start(ctx)
}
