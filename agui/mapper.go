package agui

import (
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/mosaic/event"
)

// Custom event names.
const (
	CustomPollAttempt = "mosaic.poll_attempt"
	CustomRetry       = "mosaic.retry"
)

// Mapper converts mosaic events to AG-UI events for one feed connection.
//
// The feed is a single long-lived AG-UI run; each generation is a step
// within it, named by [StepName].
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a Mapper. Empty ids are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{threadID: threadID, runID: runID}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string { return m.threadID }

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string { return m.runID }

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// StateSnapshot returns a STATE_SNAPSHOT event carrying state.
func (m *Mapper) StateSnapshot(state State) events.Event {
	return events.NewStateSnapshotEvent(state)
}

// StepName names the step for a generation.
func StepName(e event.Event) string {
	if e.Operation == "" {
		return e.GenerationID
	}
	return fmt.Sprintf("%s:%s", e.Operation, e.GenerationID)
}

// MapEvent converts a mosaic event to an AG-UI event, or nil when there is
// no AG-UI equivalent.
func (m *Mapper) MapEvent(e event.Event) events.Event {
	switch e.Type {
	case event.RunStart:
		return events.NewStepStartedEvent(StepName(e))
	case event.RunEnd:
		return events.NewStepFinishedEvent(StepName(e))
	case event.RunError:
		msg := "unknown error"
		if e.Error != nil {
			msg = e.Error.Error()
		}
		return events.NewRunErrorEvent(msg, events.WithErrorCode(string(e.Kind)))
	case event.PollAttempt:
		return events.NewCustomEvent(CustomPollAttempt, events.WithValue(map[string]any{
			"generationId": e.GenerationID,
			"attempt":      e.Attempt,
			"maxAttempts":  e.MaxAttempts,
		}))
	case event.Retry:
		return events.NewCustomEvent(CustomRetry, events.WithValue(map[string]any{
			"generationId": e.GenerationID,
			"operation":    e.Operation,
			"attempt":      e.Attempt,
			"delayMs":      e.Delay.Milliseconds(),
		}))
	default:
		return nil
	}
}
