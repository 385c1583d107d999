package eventlog

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
)

// Config selects and parameterises a log backend.
type Config struct {
	Backend string

	// file
	FilePath string

	// bolt
	BoltPath   string
	BoltBucket string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisKey      string
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Log, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryLog(), nil
	case BackendFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		return NewFileLog(cfg.FilePath), nil
	case BackendBolt:
		if cfg.BoltPath == "" {
			return nil, fmt.Errorf("bolt backend requires a path")
		}
		return NewBoltLog(cfg.BoltPath, cfg.BoltBucket)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		return NewRedisLog(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKey)
	default:
		return nil, fmt.Errorf("unknown event log backend %q", cfg.Backend)
	}
}
