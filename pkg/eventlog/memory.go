package eventlog

import (
	"context"
	"sync"

	"github.com/evermem/memimg/domain/event"
)

// MemoryLog is an in-process log backed by a slice. It is safe for
// concurrent use and is the default backend for tests and short-lived
// images.
type MemoryLog struct {
	mu     sync.RWMutex
	events []*event.Event
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, ev *event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

// GetAll implements Log.
func (l *MemoryLog) GetAll(_ context.Context) ([]*event.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*event.Event(nil), l.events...), nil
}

// Stream implements Streamer.
func (l *MemoryLog) Stream(ctx context.Context, fn func(*event.Event) error) error {
	events, err := l.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

// Clear implements Clearer.
func (l *MemoryLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
	return nil
}

// Len returns the number of stored events.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
