// Package server exposes the gateway and the studio over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/settings"
	"github.com/spetersoncode/mosaic/studio"
)

// Config holds the server's collaborators.
type Config struct {
	Port     int
	Logger   *slog.Logger
	Gateway  studio.Gateway
	Studio   *studio.Studio
	Settings *settings.Manager

	// Hub fans studio and gateway events out to /api/events clients.
	Hub *event.Hub
}

type Server struct {
	Router *chi.Mux
	Port   int

	logger   *slog.Logger
	gateway  studio.Gateway
	studio   *studio.Studio
	settings *settings.Manager
	hub      *event.Hub
}

// New builds the router and registers every route.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hub := cfg.Hub
	if hub == nil {
		hub = event.NewHub()
	}
	s := &Server{
		Router:   chi.NewRouter(),
		Port:     cfg.Port,
		logger:   logger,
		gateway:  cfg.Gateway,
		studio:   cfg.Studio,
		settings: cfg.Settings,
		hub:      hub,
	}

	r := s.Router
	r.Use(RequestIDMiddleware)
	r.Use(CORSMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "mosaic")
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-image", s.handleGenerateImage)
		r.Post("/generate-video", s.handleGenerateVideo)
		r.Post("/video-status", s.handleVideoStatus)
		r.Post("/improve-image", s.handleImproveImage)

		r.Get("/generations", s.handleListGenerations)
		r.Post("/generations", s.handleCreateGeneration)
		r.Delete("/generations/{id}", s.handleCancelGeneration)

		r.Get("/media", s.handleListMedia)
		r.Get("/media/locate", s.handleLocateMedia)
		r.Post("/media/{mediaId}/video", s.handleImageToVideo)
		r.Post("/media/{mediaId}/improve", s.handleImproveMedia)

		r.Delete("/notice", s.handleDismissNotice)
		r.Get("/events", s.handleEvents)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})

	return s
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.Port),
		Handler:     s.Router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
		// Event streams end with ctx so Shutdown is not held open.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.Int("port", s.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
