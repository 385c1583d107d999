// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the engine-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	eventsAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memimg",
			Subsystem: "events",
			Name:      "appended_total",
			Help:      "Total number of events appended to the log.",
		},
		[]string{"type"},
	)

	eventsReplayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memimg",
			Subsystem: "events",
			Name:      "replayed_total",
			Help:      "Total number of events applied during replays.",
		},
		[]string{"type"},
	)

	replayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "memimg",
			Subsystem: "replay",
			Name:      "duration_seconds",
			Help:      "Duration of full replays.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
	)

	snapshotOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memimg",
			Subsystem: "snapshot",
			Name:      "operations_total",
			Help:      "Total snapshot encodes and decodes, by direction and status.",
		},
		[]string{"direction", "status"},
	)

	snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "memimg",
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Duration of snapshot encodes and decodes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"direction"},
	)

	transactionSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memimg",
			Subsystem: "transactions",
			Name:      "saves_total",
			Help:      "Total transaction saves, by status.",
		},
		[]string{"status"},
	)

	transactionDelta = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "memimg",
			Subsystem: "transactions",
			Name:      "delta_entries",
			Help:      "Delta entries flushed per save.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	scriptExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "memimg",
			Subsystem: "scripts",
			Name:      "executions_total",
			Help:      "Total script executions against an image, by status.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		eventsAppended,
		eventsReplayed,
		replayDuration,
		snapshotOps,
		snapshotDuration,
		transactionSaves,
		transactionDelta,
		scriptExecutions,
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordAppend records one event appended to the log.
func RecordAppend(eventType string) {
	eventsAppended.WithLabelValues(eventType).Inc()
}

// RecordReplayEvent records one event applied during a replay.
func RecordReplayEvent(eventType string) {
	eventsReplayed.WithLabelValues(eventType).Inc()
}

// RecordReplay records a completed replay.
func RecordReplay(duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	replayDuration.Observe(duration.Seconds())
}

// RecordSnapshot records a snapshot encode or decode.
func RecordSnapshot(direction string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	snapshotOps.WithLabelValues(direction, status).Inc()
	snapshotDuration.WithLabelValues(direction).Observe(duration.Seconds())
}

// RecordTransactionSave records a save attempt and its flushed delta size.
func RecordTransactionSave(entries int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	transactionSaves.WithLabelValues(status).Inc()
	if err == nil {
		transactionDelta.Observe(float64(entries))
	}
}

// RecordScriptExecution records a script run against an image.
func RecordScriptExecution(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	scriptExecutions.WithLabelValues(status).Inc()
}
