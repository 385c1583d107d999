// Package config provides environment-aware configuration for the engine's
// event log backend and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/evermem/memimg/pkg/eventlog"
	"github.com/evermem/memimg/pkg/logger"
)

// Config holds the engine configuration.
type Config struct {
	// Event log backend
	LogBackend    string
	LogFilePath   string
	BoltPath      string
	BoltBucket    string
	RedisAddr     string
	RedisPassword string
	RedisKey      string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, with an optional .env
// file beside the process. Missing variables fall back to an in-memory
// log and text logging at info level.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		LogBackend:    getEnv("MEMIMG_LOG_BACKEND", eventlog.BackendMemory),
		LogFilePath:   os.Getenv("MEMIMG_LOG_FILE"),
		BoltPath:      os.Getenv("MEMIMG_BOLT_PATH"),
		BoltBucket:    getEnv("MEMIMG_BOLT_BUCKET", eventlog.DefaultBoltBucket),
		RedisAddr:     os.Getenv("MEMIMG_REDIS_ADDR"),
		RedisPassword: os.Getenv("MEMIMG_REDIS_PASSWORD"),
		RedisKey:      getEnv("MEMIMG_REDIS_KEY", eventlog.DefaultRedisKey),
		LogLevel:      getEnv("MEMIMG_LOG_LEVEL", "info"),
		LogFormat:     getEnv("MEMIMG_LOG_FORMAT", "text"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selection and its required parameters.
func (c *Config) Validate() error {
	switch c.LogBackend {
	case eventlog.BackendMemory:
		return nil
	case eventlog.BackendFile:
		if c.LogFilePath == "" {
			return fmt.Errorf("MEMIMG_LOG_FILE is required for the file backend")
		}
	case eventlog.BackendBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("MEMIMG_BOLT_PATH is required for the bolt backend")
		}
	case eventlog.BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("MEMIMG_REDIS_ADDR is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid MEMIMG_LOG_BACKEND: %s (must be memory, file, bolt, or redis)", c.LogBackend)
	}
	return nil
}

// EventLog converts the configuration into the event log package's form.
func (c *Config) EventLog() eventlog.Config {
	return eventlog.Config{
		Backend:       c.LogBackend,
		FilePath:      c.LogFilePath,
		BoltPath:      c.BoltPath,
		BoltBucket:    c.BoltBucket,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisKey:      c.RedisKey,
	}
}

// Logging converts the configuration into the logger package's form.
func (c *Config) Logging() logger.Config {
	return logger.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
