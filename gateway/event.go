package gateway

import (
	"time"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/event"
)

func (g *Gateway) emitStart(op string, p ai.Provider, model string) time.Time {
	event.Emit(g.events, event.Event{Type: event.RequestStart, Operation: op, Provider: p, Model: model})
	return time.Now()
}

func (g *Gateway) emitEnd(op string, p ai.Provider, model string, start time.Time, err error) {
	ev := event.Event{
		Type:      event.RequestComplete,
		Operation: op,
		Provider:  p,
		Model:     model,
		Duration:  time.Since(start),
	}
	if err != nil {
		ev.Type = event.RequestError
		ev.Error = err
		ev.Kind = ai.KindOf(err)
	}
	event.Emit(g.events, ev)
}
