package studio

import (
	"context"
	"errors"

	ai "github.com/spetersoncode/mosaic"
	"github.com/spetersoncode/mosaic/event"
	"github.com/spetersoncode/mosaic/timeline"
)

// Job is a running generation. It finishes exactly once.
type Job struct {
	// ID is the generation id in the timeline.
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the generation reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the failure, or nil on success. Only valid after Done.
func (j *Job) Err() error {
	select {
	case <-j.done:
		return j.err
	default:
		return nil
	}
}

// Wait blocks until the job finishes or ctx ends. Abandoning the wait does
// not cancel the job.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel asks the job to stop. It fails with kind Cancelled unless it has
// already finished.
func (j *Job) Cancel() { j.cancel() }

// start runs fn for the already-begun generation id on a context detached
// from the caller, then completes or fails the record.
func (s *Studio) start(parent context.Context, id, op string, fn func(context.Context) (timeline.Result, error)) *Job {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	job := &Job{ID: id, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()

	event.Emit(s.events, event.Event{Type: event.RunStart, GenerationID: id, Operation: op})
	s.logger.Info("generation started", "generation_id", id, "operation", op)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		err := s.finish(ctx, id, op, fn)

		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()

		job.err = err
		close(job.done)
	}()
	return job
}

func (s *Studio) finish(ctx context.Context, id, op string, fn func(context.Context) (timeline.Result, error)) error {
	res, err := fn(ctx)
	if err == nil {
		if _, cerr := s.timeline.Complete(id, res); cerr != nil {
			err = ai.NewFailure(ai.FailureNoContent, "The provider returned nothing usable.", cerr)
		}
	}
	if err == nil {
		event.Emit(s.events, event.Event{Type: event.RunEnd, GenerationID: id, Operation: op})
		s.logger.Info("generation complete", "generation_id", id, "operation", op)
		return nil
	}

	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || ai.KindOf(err) == ai.FailureCancelled) {
		err = ai.NewFailure(ai.FailureCancelled, "Generation was cancelled.", context.Canceled)
	}
	err = s.timeline.Fail(id, err)

	event.Emit(s.events, event.Event{
		Type:         event.RunError,
		GenerationID: id,
		Operation:    op,
		Kind:         ai.KindOf(err),
		Error:        err,
	})
	s.logger.Warn("generation failed", "generation_id", id, "operation", op,
		"kind", ai.KindOf(err), "error", err)
	if ai.KindOf(err) != ai.FailureCancelled {
		s.raise(id, err)
	}
	return err
}

// Cancel cancels the in-flight generation id. It reports whether a job was found.
func (s *Studio) Cancel(id string) bool {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if ok {
		job.Cancel()
	}
	return ok
}

// Running returns the number of in-flight jobs.
func (s *Studio) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Shutdown cancels every in-flight job and waits for them to finish or for
// ctx to end.
func (s *Studio) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, job := range s.jobs {
		job.Cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
