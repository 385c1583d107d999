package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evermem/memimg/pkg/eventlog"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, eventlog.BackendMemory, cfg.LogBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, eventlog.DefaultBoltBucket, cfg.BoltBucket)
	assert.Equal(t, eventlog.DefaultRedisKey, cfg.RedisKey)
}

func TestLoadFileBackend(t *testing.T) {
	t.Setenv("MEMIMG_LOG_BACKEND", "file")
	t.Setenv("MEMIMG_LOG_FILE", "/tmp/events.jsonl")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, eventlog.BackendFile, cfg.LogBackend)
	assert.Equal(t, "/tmp/events.jsonl", cfg.EventLog().FilePath)
}

func TestValidateMissingParameters(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"file without path", Config{LogBackend: eventlog.BackendFile}},
		{"bolt without path", Config{LogBackend: eventlog.BackendBolt}},
		{"redis without addr", Config{LogBackend: eventlog.BackendRedis}},
		{"unknown backend", Config{LogBackend: "punchcards"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.cfg.Validate())
		})
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MEMIMG_LOG_BACKEND", "punchcards")
	_, err := Load()
	require.Error(t, err)
}

func TestLoggingConversion(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	lc := cfg.Logging()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
}
