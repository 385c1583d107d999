package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/evermem/memimg/domain/event"
)

// DefaultRedisKey is the list key events live under when none is
// configured.
const DefaultRedisKey = "memimg:events"

// RedisLog stores events in a Redis list: RPUSH on append, LRANGE on read.
// Redis keeps list order, so append order is the read order.
type RedisLog struct {
	mu     sync.Mutex
	client *redis.Client
	key    string
	closed bool
}

// NewRedisLog connects to a Redis server and verifies the connection.
func NewRedisLog(ctx context.Context, addr, password, key string) (*RedisLog, error) {
	if key == "" {
		key = DefaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &RedisLog{client: client, key: key}, nil
}

func (l *RedisLog) guard() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// Append implements Log.
func (l *RedisLog) Append(ctx context.Context, ev *event.Event) error {
	if err := l.guard(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := l.client.RPush(ctx, l.key, data).Err(); err != nil {
		return fmt.Errorf("append to redis log: %w", err)
	}
	return nil
}

// GetAll implements Log.
func (l *RedisLog) GetAll(ctx context.Context) ([]*event.Event, error) {
	if err := l.guard(); err != nil {
		return nil, err
	}
	lines, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis log: %w", err)
	}
	out := make([]*event.Event, 0, len(lines))
	for i, line := range lines {
		var ev event.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal redis log entry %d: %w", i, err)
		}
		out = append(out, &ev)
	}
	return out, nil
}

// Stream implements Streamer, reading the list in fixed-size chunks.
func (l *RedisLog) Stream(ctx context.Context, fn func(*event.Event) error) error {
	if err := l.guard(); err != nil {
		return err
	}
	const chunk = 256
	for start := int64(0); ; start += chunk {
		lines, err := l.client.LRange(ctx, l.key, start, start+chunk-1).Result()
		if err != nil {
			return fmt.Errorf("read redis log: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}
		for i, line := range lines {
			var ev event.Event
			if err := json.Unmarshal([]byte(line), &ev); err != nil {
				return fmt.Errorf("unmarshal redis log entry %d: %w", int(start)+i, err)
			}
			if err := fn(&ev); err != nil {
				return err
			}
		}
		if len(lines) < chunk {
			return nil
		}
	}
}

// Clear implements Clearer by deleting the list key.
func (l *RedisLog) Clear(ctx context.Context) error {
	if err := l.guard(); err != nil {
		return err
	}
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("clear redis log: %w", err)
	}
	return nil
}

// Close releases the client; the log enters its terminal state.
func (l *RedisLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return l.client.Close()
}
