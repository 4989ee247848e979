package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Outbound API calls
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushort_client_requests_total",
			Help: "Total number of calls made to the link service",
		},
		[]string{"method", "path", "outcome"}, // outcome: "2xx", "404", ..., "network"
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ushort_client_request_duration_seconds",
			Help:    "Link service call duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Workflow outcomes
	WorkflowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushort_workflow_outcomes_total",
			Help: "Terminal workflow outcomes",
		},
		[]string{"workflow", "outcome"},
	)

	NotificationsShown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushort_notifications_shown_total",
			Help: "Notifications materialized, by kind",
		},
		[]string{"kind"},
	)

	ClipboardAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ushort_clipboard_attempts_total",
			Help: "Clipboard write attempts by strategy and result",
		},
		[]string{"strategy", "result"},
	)
)
