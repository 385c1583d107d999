// Package eventlog defines the append-only log the engine writes mutation
// events to, and the backends that implement it: an in-process slice, a
// JSON Lines file, a bbolt bucket and a Redis list. Within one backend
// instance, GetAll and Stream return events in append order; the package
// makes no promise about durability or multiple writers.
package eventlog

import (
	"context"
	"errors"

	"github.com/evermem/memimg/domain/event"
)

// ErrClosed is returned by every call made after a closable backend entered
// its terminal Closed state.
var ErrClosed = errors.New("event log is closed")

// Log is the minimal contract the engine consumes.
type Log interface {
	// Append adds one event at the tail.
	Append(ctx context.Context, ev *event.Event) error
	// GetAll returns every event in insertion order.
	GetAll(ctx context.Context) ([]*event.Event, error)
}

// Streamer is the optional one-at-a-time read for memory-frugal replay.
// Iteration stops at the first error fn returns.
type Streamer interface {
	Stream(ctx context.Context, fn func(*event.Event) error) error
}

// Clearer is the optional truncate.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Closer is implemented by backends holding external resources. A closed
// log fails every further call with ErrClosed.
type Closer interface {
	Close() error
}
