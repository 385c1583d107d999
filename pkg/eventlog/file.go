package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/evermem/memimg/domain/event"
)

// FileLog is a JSON Lines log: UTF-8, one event per line, newline
// terminated. The append handle opens on the first write and closes with
// the log; reads open their own handle so a replay can run against a log
// that is still being written by its owner.
type FileLog struct {
	mu     sync.Mutex
	path   string
	out    *os.File
	closed bool
}

// NewFileLog creates a log at path. The file is created lazily.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Path returns the log's file path.
func (l *FileLog) Path() string { return l.path }

// Append implements Log.
func (l *FileLog) Append(_ context.Context, ev *event.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.out == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", l.path, err)
		}
		l.out = f
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.out.Write(line); err != nil {
		return fmt.Errorf("write event log %s: %w", l.path, err)
	}
	return nil
}

// GetAll implements Log.
func (l *FileLog) GetAll(ctx context.Context) ([]*event.Event, error) {
	var out []*event.Event
	err := l.Stream(ctx, func(ev *event.Event) error {
		out = append(out, ev)
		return nil
	})
	return out, err
}

// Stream implements Streamer, decoding one line at a time. Lines are
// screened with a cheap structural check before the full parse, so a torn
// trailing line from a crashed writer surfaces as an error naming the line
// instead of a partial event.
func (l *FileLog) Stream(_ context.Context, fn func(*event.Event) error) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open event log %s: %w", l.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) || !gjson.GetBytes(line, "type").Exists() {
			return fmt.Errorf("event log %s: line %d is not an event", l.path, lineNo)
		}
		var ev event.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("event log %s: line %d: %w", l.path, lineNo, err)
		}
		if err := fn(&ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event log %s: %w", l.path, err)
	}
	return nil
}

// Clear implements Clearer by truncating the file.
func (l *FileLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.out != nil {
		if err := l.out.Truncate(0); err != nil {
			return fmt.Errorf("truncate event log %s: %w", l.path, err)
		}
		if _, err := l.out.Seek(0, 0); err != nil {
			return fmt.Errorf("rewind event log %s: %w", l.path, err)
		}
		return nil
	}
	if err := os.Truncate(l.path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate event log %s: %w", l.path, err)
	}
	return nil
}

// Close releases the append handle and puts the log in its terminal state.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	if l.out != nil {
		err := l.out.Close()
		l.out = nil
		if err != nil {
			return fmt.Errorf("close event log %s: %w", l.path, err)
		}
	}
	return nil
}
