package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	ChannelsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "push_channels_active",
			Help: "Current number of live push channels",
		},
		[]string{"transport"},
	)

	PushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_pushes_total",
			Help: "Notifier push attempts by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Messages persisted by kind",
		},
		[]string{"kind"},
	)
)
