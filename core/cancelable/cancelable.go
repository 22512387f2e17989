// Package cancelable provides a cooperative cancellation token for
// long-running jobs. Two write-once flags are polled at a fixed interval.
package cancelable

import (
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultPollInterval is used when no WithPollInterval option is given.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultMessage is the error message used when the descriptor has none.
	DefaultMessage = "Promise canceled."
)

// ErrCanceled matches every *CanceledError through errors.Is.
var ErrCanceled = errors.New("operation canceled")

// Descriptor is the error template handed back to Wait callers on cancellation.
type Descriptor struct {
	Message string
	Fields  map[string]any
}

// CanceledError is returned by Wait once Cancel was called.
type CanceledError struct {
	Message string
	Fields  map[string]any
}

func (e *CanceledError) Error() string { return e.Message }

func (e *CanceledError) Is(target error) bool { return target == ErrCanceled }

type Option func(*Operation)

// WithPollInterval sets how often Wait re-checks the flags. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *Operation) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(o *Operation) {
		if c != nil {
			o.clock = c
		}
	}
}

// Operation is a cancellation token. Cancel and Discard may be called from
// any goroutine, any number of times; flags are never reset.
type Operation struct {
	desc     Descriptor
	interval time.Duration
	clock    clockwork.Clock

	canceled  atomic.Bool
	discarded atomic.Bool
}

func New(desc Descriptor, opts ...Option) *Operation {
	o := &Operation{
		desc:     desc,
		interval: DefaultPollInterval,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Cancel requests the operation to stop.
func (o *Operation) Cancel() { o.canceled.Store(true) }

// Discard lets the owner tear the operation down without a cancellation error.
func (o *Operation) Discard() { o.discarded.Store(true) }

func (o *Operation) Canceled() bool { return o.canceled.Load() }

func (o *Operation) Discarded() bool { return o.discarded.Load() }

func (o *Operation) PollInterval() time.Duration { return o.interval }

// Err returns the cancellation error once Cancel was called, nil before.
// Unlike Wait it never blocks, so batch loops use it at their yield points.
func (o *Operation) Err() error {
	if o.canceled.Load() {
		return o.canceledError()
	}
	return nil
}

// Wait blocks until a flag is set or ctx is done. A cancel always wins over a
// discard: the result is then a *CanceledError built from the descriptor.
// Discard alone makes Wait return nil.
func (o *Operation) Wait(ctx context.Context) error {
	if done, err := o.poll(); done {
		return err
	}

	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if done, err := o.poll(); done {
				return err
			}
		}
	}
}

func (o *Operation) poll() (bool, error) {
	if o.canceled.Load() {
		return true, o.canceledError()
	}
	if o.discarded.Load() {
		return true, nil
	}
	return false, nil
}

func (o *Operation) canceledError() *CanceledError {
	msg := o.desc.Message
	if msg == "" {
		msg = DefaultMessage
	}
	return &CanceledError{Message: msg, Fields: maps.Clone(o.desc.Fields)}
}
