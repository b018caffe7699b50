package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/gateway"
	"github.com/spetersoncode/mosaic/media"
	"github.com/spetersoncode/mosaic/poll"
	"github.com/spetersoncode/mosaic/timeline"
)

// Gateway is the subset of *gateway.Gateway the studio drives.
type Gateway interface {
	RequestImages(ctx context.Context, req gateway.Request) (*gateway.ImageResult, error)
	RequestVideos(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error)
	RequestImageToVideo(ctx context.Context, req gateway.Request) (*ai.VideoOperation, error)
	RequestImageImprovement(ctx context.Context, req gateway.ImproveRequest) (*gateway.ImageResult, error)
	CheckVideo(ctx context.Context, op *ai.VideoOperation, apiKey string) (*ai.VideoOperation, error)
}

// Config holds configuration for creating a Studio.
type Config struct {
	Gateway Gateway

	// Timeline is the generation store. If nil, a new one is created.
	Timeline *timeline.Store

	// Poll configures video status polling. Zero values use poll.DefaultConfig.
	Poll poll.Config

	// Clock drives poll waits. If nil, the real clock is used.
	Clock poll.Clock

	// Events is an optional channel for lifecycle, poll, and notice events.
	Events chan<- event.Event

	Logger *slog.Logger
}

// Notice is the message shown to the user after a failure. Credentials
// notices prompt for an API key instead of showing a banner.
type Notice struct {
	Kind                ai.FailureKind `json:"kind"`
	Message             string         `json:"message"`
	Details             string         `json:"details,omitempty"`
	CredentialsRequired bool           `json:"credentialsRequired"`
	GenerationID        string         `json:"generationId,omitempty"`
	Time                time.Time      `json:"time"`
}

// Studio runs generation workflows against a timeline. Every begun
// generation ends in exactly one Complete or Fail.
type Studio struct {
	gw       Gateway
	timeline *timeline.Store
	pollCfg  poll.Config
	clock    poll.Clock
	events   chan<- event.Event
	logger   *slog.Logger

	mu     sync.Mutex
	jobs   map[string]*Job
	notice *Notice
	wg     sync.WaitGroup
}

// New creates a Studio.
func New(cfg Config) *Studio {
	s := &Studio{
		gw:       cfg.Gateway,
		timeline: cfg.Timeline,
		pollCfg:  cfg.Poll,
		clock:    cfg.Clock,
		events:   cfg.Events,
		logger:   cfg.Logger,
		jobs:     make(map[string]*Job),
	}
	if s.timeline == nil {
		s.timeline = timeline.New()
	}
	if s.pollCfg.Interval <= 0 || s.pollCfg.MaxAttempts <= 0 {
		def := poll.DefaultConfig()
		if s.pollCfg.Interval <= 0 {
			s.pollCfg.Interval = def.Interval
		}
		if s.pollCfg.MaxAttempts <= 0 {
			s.pollCfg.MaxAttempts = def.MaxAttempts
		}
	}
	if s.clock == nil {
		s.clock = poll.RealClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Timeline returns the underlying generation store.
func (s *Studio) Timeline() *timeline.Store { return s.timeline }

// Generations returns records newest-insertion-first.
func (s *Studio) Generations() []timeline.Record { return s.timeline.InsertionOrder() }

// Media returns the flattened cross-generation view.
func (s *Studio) Media() []media.Item { return media.Flatten(s.timeline.InsertionOrder()) }

// Locate returns the flattened index of a generation's local item, or -1.
func (s *Studio) Locate(generationID string, index int) int {
	return media.LocateGlobalIndex(s.timeline.InsertionOrder(), generationID, index)
}

// GenerateImages begins an image generation, optionally conditioned on
// source bytes (an upload, not a timeline item) of the given MIME type.
func (s *Studio) GenerateImages(ctx context.Context, prompt string, source []byte, mimeType string) (*Job, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "Please enter a prompt.", ai.ErrEmptyPrompt)
	}
	id := s.timeline.Begin(prompt, ai.MediaImage, "")
	return s.start(ctx, id, "images", func(ctx context.Context) (timeline.Result, error) {
		res, err := s.gw.RequestImages(ctx, gateway.Request{Prompt: prompt, SourceImage: source, SourceMIME: mimeType})
		if err != nil {
			return timeline.Result{}, err
		}
		return timeline.ImageResult(res.Items, ""), nil
	}), nil
}

// GenerateVideo begins a text-to-video generation and polls it to completion.
func (s *Studio) GenerateVideo(ctx context.Context, prompt string) (*Job, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "Please enter a prompt.", ai.ErrEmptyPrompt)
	}
	id := s.timeline.Begin(prompt, ai.MediaVideo, "")
	return s.start(ctx, id, "videos", func(ctx context.Context) (timeline.Result, error) {
		op, err := s.gw.RequestVideos(ctx, gateway.Request{Prompt: prompt})
		if err != nil {
			return timeline.Result{}, err
		}
		return s.awaitVideo(ctx, id, op)
	}), nil
}

// ImageToVideo animates an existing image item. Items without raw bytes,
// such as samples, are rejected with UnsupportedSource before anything is
// begun.
func (s *Studio) ImageToVideo(ctx context.Context, mediaID string) (*Job, error) {
	item, err := s.source(mediaID)
	if err != nil {
		return nil, err
	}
	prompt := gateway.AnimatePrompt(item.Prompt)
	id := s.timeline.Begin(prompt, ai.MediaVideo, item.URL)
	return s.start(ctx, id, "image_to_video", func(ctx context.Context) (timeline.Result, error) {
		op, err := s.gw.RequestImageToVideo(ctx, gateway.Request{
			Prompt:      prompt,
			SourceImage: item.RawBytes,
			SourceMIME:  item.MIMEType,
		})
		if err != nil {
			return timeline.Result{}, err
		}
		return s.awaitVideo(ctx, id, op)
	}), nil
}

// ImproveImage begins a refinement of an existing image item. The new record
// shows the provider's enhanced prompt, or a local label when none is echoed.
func (s *Studio) ImproveImage(ctx context.Context, mediaID, improvement string) (*Job, error) {
	if strings.TrimSpace(improvement) == "" {
		return nil, ai.NewFailure(ai.FailureInvalidInput, "Describe how the image should be improved.", ai.ErrEmptyPrompt)
	}
	item, err := s.source(mediaID)
	if err != nil {
		return nil, err
	}
	label := ImproveLabel(item.Prompt, improvement)
	id := s.timeline.Begin(label, ai.MediaImage, item.URL)
	return s.start(ctx, id, "improve", func(ctx context.Context) (timeline.Result, error) {
		res, err := s.gw.RequestImageImprovement(ctx, gateway.ImproveRequest{
			OriginalPrompt:    item.Prompt,
			ImprovementPrompt: improvement,
			SourceImage:       item.RawBytes,
			SourceMIME:        item.MIMEType,
		})
		if err != nil {
			return timeline.Result{}, err
		}
		prompt := res.EnhancedPrompt
		if prompt == "" {
			prompt = label
		}
		return timeline.ImageResult(res.Items, prompt), nil
	}), nil
}

// ImproveLabel is the displayed prompt of an improvement when the provider
// does not echo an enhanced prompt.
func ImproveLabel(original, improvement string) string {
	return fmt.Sprintf("%s (improved: %s)", original, improvement)
}

// source looks up a media item eligible for conversion.
func (s *Studio) source(mediaID string) (media.Item, error) {
	item, ok := media.Find(s.timeline.InsertionOrder(), mediaID)
	if !ok {
		return media.Item{}, ai.NewFailure(ai.FailureInvalidInput, "That image no longer exists.", nil)
	}
	if !item.HasBytes() {
		return media.Item{}, ai.NewFailure(ai.FailureUnsupportedSource,
			"This item can't be used as a source. Generate a new image first.", nil)
	}
	return item, nil
}

// awaitVideo drives a pending operation to a terminal state.
func (s *Studio) awaitVideo(ctx context.Context, id string, op *ai.VideoOperation) (timeline.Result, error) {
	if !op.Done {
		opts := []poll.Option{poll.WithClock(s.clock), poll.WithLogger(s.logger.With("generation_id", id))}
		if s.events != nil {
			pollEvents := make(chan poll.Event, 8)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range pollEvents {
					event.Emit(s.events, event.Event{
						Type:         event.PollAttempt,
						GenerationID: id,
						Operation:    "video_status",
						Attempt:      ev.Attempt,
						MaxAttempts:  ev.MaxAttempts,
						Error:        ev.Error,
					})
				}
			}()
			defer func() {
				close(pollEvents)
				<-done
			}()
			opts = append(opts, poll.WithEvents(pollEvents))
		}

		p := poll.New[*ai.VideoOperation](s.pollCfg, func(ctx context.Context, h *ai.VideoOperation) (*ai.VideoOperation, bool, error) {
			next, err := s.gw.CheckVideo(ctx, h, "")
			if err != nil {
				return h, false, err
			}
			return next, next.Done, nil
		}, opts...)

		var err error
		op, err = p.Run(ctx, op)
		if err != nil {
			return timeline.Result{}, err
		}
	}
	return timeline.VideoResult(op.VideoURLs()), nil
}

// Notice returns the latest undismissed notice.
func (s *Studio) Notice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	return *s.notice, true
}

// DismissNotice clears the current notice.
func (s *Studio) DismissNotice() {
	s.mu.Lock()
	cleared := s.notice != nil
	s.notice = nil
	s.mu.Unlock()
	if cleared {
		event.Emit(s.events, event.Event{Type: event.Notice})
	}
}

func (s *Studio) raise(id string, err error) {
	n := Notice{
		Kind:                ai.KindOf(err),
		Message:             err.Error(),
		CredentialsRequired: ai.NeedsCredentials(err),
		GenerationID:        id,
		Time:                time.Now(),
	}
	var f *ai.Failure
	if errors.As(err, &f) {
		n.Details = f.Details
	}

	s.mu.Lock()
	s.notice = &n
	s.mu.Unlock()

	event.Emit(s.events, event.Event{
		Type:         event.Notice,
		GenerationID: id,
		Kind:         n.Kind,
		Message:      n.Message,
		Error:        err,
	})
}
