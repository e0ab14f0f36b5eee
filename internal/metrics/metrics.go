package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Presence metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_connections_active",
			Help: "Currently registered websocket connections",
		},
	)

	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_connections_total",
			Help: "Total websocket connection attempts",
		},
		[]string{"outcome"}, // "registered" or "rejected"
	)

	// Delivery metrics
	EventsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_events_pushed_total",
			Help: "Total events pushed to live connections",
		},
		[]string{"event"},
	)

	PushFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_push_failures_total",
			Help: "Pushes that failed against a dying connection",
		},
		[]string{"event"},
	)

	DeliveryMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_delivery_misses_total",
			Help: "Deliveries skipped because the recipient was offline",
		},
	)

	// Business metrics
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total messages persisted",
		},
		[]string{"kind"}, // "direct" or "group"
	)

	ReactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_reactions_toggled_total",
			Help: "Total reaction toggles",
		},
		[]string{"result"}, // "applied" or "removed"
	)

	// Scheduled dispatch metrics
	ScheduledDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_scheduled_dispatched_total",
			Help: "Scheduled messages reaching a terminal status",
		},
		[]string{"status"}, // "sent" or "failed"
	)

	ScheduledCyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_scheduled_cycles_skipped_total",
			Help: "Dispatch ticks skipped because a cycle was still running",
		},
	)

	ScheduledCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_scheduled_cycle_duration_seconds",
			Help:    "Scheduled dispatch cycle duration",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15},
		},
	)
)
