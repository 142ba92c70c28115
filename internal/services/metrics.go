package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once on the default registry and served by /metrics.
var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viaggi_mutations_total",
			Help: "Total number of account mutations applied",
		},
		[]string{"operation", "status"},
	)
	persistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viaggi_snapshot_persist_total",
			Help: "Total number of snapshot saves by outcome",
		},
		[]string{"status"},
	)
	persistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "viaggi_snapshot_persist_duration_milliseconds",
			Help:    "Snapshot save duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
	rateRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viaggi_rate_refresh_total",
			Help: "Total number of exchange rate refreshes by outcome",
		},
		[]string{"status"},
	)
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusSkipped = "skipped"
)

func recordMutation(op string, err error) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	mutationsTotal.WithLabelValues(op, status).Inc()
}
