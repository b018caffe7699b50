// Package event provides the observable events emitted while generations run.
// The run lifecycle types map 1:1 onto AG-UI run events; the agui package
// turns them into a browser feed.
package event

import (
	"time"

	ai "github.com/spetersoncode/mosaic"
)

// Type identifies the kind of event.
type Type string

// Generation lifecycle events
const (
	// RunStart fires when a generation is begun and its placeholder inserted.
	RunStart Type = "run_start"

	// RunEnd fires when a generation completes.
	RunEnd Type = "run_end"

	// RunError fires when a generation fails and its placeholder is removed.
	RunError Type = "run_error"
)

// Provider request events
const (
	// RequestStart fires before a provider call begins.
	RequestStart Type = "request_start"

	// RequestComplete fires after a provider call succeeds.
	RequestComplete Type = "request_complete"

	// RequestError fires when a provider call fails after retries.
	RequestError Type = "request_error"

	// Retry fires when a transient provider failure is retried.
	Retry Type = "retry"
)

// Long-running operation events
const (
	// PollAttempt fires after each status check.
	PollAttempt Type = "poll_attempt"
)

// Notice fires when the user should see a message, such as a failure banner
// or a request to enter credentials.
const Notice Type = "notice"

// Event represents an observable occurrence during a generation.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// GenerationID identifies the timeline record, when there is one.
	GenerationID string

	// Operation names the gateway operation ("images", "videos", "image_to_video",
	// "improve", "video_status").
	Operation string

	// Provider is the backend serving the call.
	Provider ai.Provider

	// Model is the model identifier, if known.
	Model string

	// Attempt and MaxAttempts are set for Retry and PollAttempt events.
	Attempt     int
	MaxAttempts int

	// Delay is the wait before the next retry.
	Delay time.Duration

	// Duration is the elapsed time for completed calls.
	Duration time.Duration

	// Kind classifies the failure for RunError and Notice events.
	Kind ai.FailureKind

	// Error contains the error for RunError and RequestError events.
	Error error

	// Message contains user-facing text for Notice events.
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel without blocking.
// A nil channel discards the event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
		// Channel full - don't block
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
