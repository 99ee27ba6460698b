// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onegate_sessions_active",
			Help: "Number of upstream sessions currently attached",
		},
	)

	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_sessions_total",
			Help: "Total upstream sessions by terminal outcome",
		},
		[]string{"outcome"},
	)

	// Event metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_events_received_total",
			Help: "Inbound frames decoded, by event variant",
		},
		[]string{"variant"},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_frames_dropped_total",
			Help: "Inbound frames dropped, by reason",
		},
		[]string{"reason"},
	)

	// Action metrics
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_actions_total",
			Help: "Actions sent upstream, by action name and result",
		},
		[]string{"action", "result"},
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onegate_action_duration_seconds",
			Help:    "Latency from action send to terminal response",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	ActionsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onegate_actions_pending",
			Help: "Actions awaiting a response",
		},
	)

	// Journal metrics
	JournalQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "onegate_journal_queue_depth",
			Help: "Events waiting in the journal queue",
		},
	)

	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_journal_writes_total",
			Help: "Journal records written, by conversation kind",
		},
		[]string{"kind"},
	)

	JournalErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onegate_journal_errors_total",
			Help: "Journal operations that failed",
		},
	)

	// Media metrics
	MediaDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_media_downloads_total",
			Help: "Media side-loads, by result",
		},
		[]string{"result"},
	)

	MediaBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onegate_media_bytes_total",
			Help: "Bytes written to the media directory",
		},
	)

	// Plugin metrics
	PluginHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_plugin_handled_total",
			Help: "Events handled per plugin, by outcome",
		},
		[]string{"plugin", "outcome"},
	)

	PluginPanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onegate_plugin_panics_total",
			Help: "Panics recovered from plugin handlers",
		},
		[]string{"plugin"},
	)

	DispatchQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "onegate_dispatch_queue_depth",
			Help: "Events waiting in each plugin's dispatch queue",
		},
		[]string{"plugin"},
	)
)
