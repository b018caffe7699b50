package agui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/settings"
	"github.com/spetersoncode/mosaic/timeline"
)

// Sink receives AG-UI events in order.
type Sink func(events.Event) error

// SSESink returns a Sink writing Server-Sent Events to w, flushing after each.
func SSESink(w http.ResponseWriter) (Sink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return func(ev events.Event) error {
		return writeSSE(w, flusher, ev)
	}, nil
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev events.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

// Feed streams studio state to one client.
type Feed struct {
	Mapper  *Mapper
	Source  Source
	Changes <-chan timeline.Change
	Events  <-chan event.Event

	// Preferences, when set, is included in every snapshot. Each value
	// received on Settings replaces it and triggers a new snapshot.
	Preferences *settings.Settings
	Settings    <-chan settings.Settings

	Logger *slog.Logger
}

// Run emits RUN_STARTED and an initial STATE_SNAPSHOT, then a snapshot after
// every timeline change, settings change or notice and a mapped event for
// everything else.
// It returns when ctx ends (after emitting RUN_FINISHED) or the sink fails.
func (f *Feed) Run(ctx context.Context, sink Sink) error {
	m := f.Mapper
	if m == nil {
		m = NewMapper("", "")
	}
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("thread_id", m.ThreadID(), "run_id", m.RunID())

	if err := sink(m.RunStarted()); err != nil {
		return err
	}
	snapshot := func() error {
		st := Snapshot(f.Source)
		if f.Preferences != nil {
			st.Preferences = NewPreferences(*f.Preferences)
		}
		return sink(m.StateSnapshot(st))
	}
	if err := snapshot(); err != nil {
		return err
	}

	sent := 2
	for {
		select {
		case <-ctx.Done():
			log.Debug("feed closed", "events_sent", sent)
			_ = sink(m.RunFinished())
			return nil

		case _, ok := <-f.Changes:
			if !ok {
				f.Changes = nil
				continue
			}
			if err := snapshot(); err != nil {
				return err
			}
			sent++

		case s, ok := <-f.Settings:
			if !ok {
				f.Settings = nil
				continue
			}
			f.Preferences = &s
			if err := snapshot(); err != nil {
				return err
			}
			sent++

		case e, ok := <-f.Events:
			if !ok {
				f.Events = nil
				continue
			}
			if e.Type == event.Notice {
				if err := snapshot(); err != nil {
					return err
				}
				sent++
				continue
			}
			ev := m.MapEvent(e)
			if ev == nil {
				continue
			}
			if err := sink(ev); err != nil {
				log.Error("failed to write event", "error", err, "event_type", ev.Type())
				return err
			}
			sent++
		}
	}
}
