package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/evermem/memimg/domain/event"
)

// DefaultBoltBucket is the bucket events live in when none is configured.
const DefaultBoltBucket = "events"

// BoltLog stores events in a bbolt bucket under zero-padded sequence keys,
// so a cursor walk returns them in append order. Close is explicit and
// terminal; a closed log fails loudly.
type BoltLog struct {
	mu     sync.Mutex
	db     *bolt.DB
	bucket []byte
	closed bool
}

// NewBoltLog opens or creates the database at path and ensures the bucket
// exists.
func NewBoltLog(path, bucket string) (*BoltLog, error) {
	if bucket == "" {
		bucket = DefaultBoltBucket
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open event log database %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return &BoltLog{db: db, bucket: []byte(bucket)}, nil
}

func (l *BoltLog) guard() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// Append implements Log.
func (l *BoltLog) Append(_ context.Context, ev *event.Event) error {
	if err := l.guard(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(l.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", l.bucket)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put([]byte(fmt.Sprintf("%020d", seq)), data)
	})
}

// GetAll implements Log.
func (l *BoltLog) GetAll(ctx context.Context) ([]*event.Event, error) {
	var out []*event.Event
	err := l.Stream(ctx, func(ev *event.Event) error {
		out = append(out, ev)
		return nil
	})
	return out, err
}

// Stream implements Streamer with a forward cursor walk.
func (l *BoltLog) Stream(_ context.Context, fn func(*event.Event) error) error {
	if err := l.guard(); err != nil {
		return err
	}
	return l.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(l.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", l.bucket)
		}
		return b.ForEach(func(k, v []byte) error {
			var ev event.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("unmarshal event %s: %w", k, err)
			}
			return fn(&ev)
		})
	})
}

// Clear implements Clearer by dropping and recreating the bucket.
func (l *BoltLog) Clear(_ context.Context) error {
	if err := l.guard(); err != nil {
		return err
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(l.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(l.bucket)
		return err
	})
}

// Close releases the database handle; the log enters its terminal state.
func (l *BoltLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return l.db.Close()
}
