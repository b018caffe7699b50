// Package poll drives a long-running operation handle to a terminal state.
//
// A Poller is a single-use state machine:
//
//	Submitted -> Polling -> ... -> Done | TimedOut | Failed
//
// It waits a fixed interval before every status check and gives up after a
// bounded number of checks, reporting [ai.FailureTimeout] so callers can tell
// "still processing" apart from provider errors. The clock is injectable so
// tests can simulate pending responses without real time passing.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ai "github.com/spetersoncode/mosaic"
)

// Defaults used when a Config field is not positive.
const (
	DefaultInterval    = 10 * time.Second
	DefaultMaxAttempts = 60
)

var (
	// ErrTimedOut is the cause of the failure returned when the attempt budget is spent.
	ErrTimedOut = errors.New("poll: operation did not complete in time")

	// ErrAlreadyRun is returned when Run is called a second time.
	ErrAlreadyRun = errors.New("poll: poller already used")
)

// State is a poller lifecycle state.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateDone      State = "done"
	StateTimedOut  State = "timed_out"
	StateFailed    State = "failed"
)

// Terminal reports whether no further checks will happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateTimedOut || s == StateFailed
}

// Config bounds a polling run.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultConfig returns a 10 second interval with a 60 check ceiling.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts}
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Clock abstracts the wait between checks.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// CheckFunc re-requests the status of handle. It returns the refreshed
// handle and whether the operation is complete.
type CheckFunc[H any] func(ctx context.Context, handle H) (H, bool, error)

// Event is emitted after every status check.
type Event struct {
	Attempt     int
	MaxAttempts int
	Done        bool
	Error       error
	Timestamp   time.Time
}

type options struct {
	clock  Clock
	events chan<- Event
	logger *slog.Logger
}

// Option configures a Poller.
type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithEvents sends a non-blocking Event after each check.
func WithEvents(ch chan<- Event) Option {
	return func(o *options) {
		o.events = ch
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Poller checks one operation handle until it terminates.
type Poller[H any] struct {
	cfg   Config
	check CheckFunc[H]
	opts  options

	mu       sync.Mutex
	state    State
	attempts int
}

// New creates a Poller.
func New[H any](cfg Config, check CheckFunc[H], opts ...Option) *Poller[H] {
	o := options{clock: realClock{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Poller[H]{
		cfg:   cfg.normalized(),
		check: check,
		opts:  o,
		state: StateSubmitted,
	}
}

// State returns the current lifecycle state.
func (p *Poller[H]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns how many status checks have been made.
func (p *Poller[H]) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Run waits, checks, and repeats until the operation is done, the check
// fails, the attempt budget is spent, or ctx is cancelled. Check errors are
// returned as-is and never retried.
func (p *Poller[H]) Run(ctx context.Context, handle H) (H, error) {
	p.mu.Lock()
	if p.state != StateSubmitted {
		p.mu.Unlock()
		return handle, ErrAlreadyRun
	}
	p.state = StatePolling
	p.mu.Unlock()

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			p.finish(StateFailed)
			return handle, ctx.Err()
		case <-p.opts.clock.After(p.cfg.Interval):
		}

		next, done, err := p.check(ctx, handle)

		p.mu.Lock()
		p.attempts = attempt
		p.mu.Unlock()
		p.emit(Event{Attempt: attempt, MaxAttempts: p.cfg.MaxAttempts, Done: done, Error: err})

		if err != nil {
			p.finish(StateFailed)
			return handle, err
		}
		handle = next
		if done {
			p.finish(StateDone)
			p.opts.logger.Debug("operation complete", "attempts", attempt)
			return handle, nil
		}
	}

	p.finish(StateTimedOut)
	p.opts.logger.Warn("operation timed out",
		"attempts", p.cfg.MaxAttempts,
		"interval", p.cfg.Interval,
	)
	return handle, ai.NewFailure(ai.FailureTimeout,
		fmt.Sprintf("generation is still processing after %d status checks; try again later", p.cfg.MaxAttempts),
		ErrTimedOut)
}

func (p *Poller[H]) finish(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Poller[H]) emit(ev Event) {
	if p.opts.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case p.opts.events <- ev:
	default:
	}
}
