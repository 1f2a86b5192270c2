package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelOp       = "op"
	labelStatus   = "status"
	labelResource = "resource"

	statusOK    = "ok"
	statusError = "error"
)

var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Number of statements executed, by operation and outcome",
		},
		[]string{labelOp, labelStatus},
	)

	queryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of statement execution",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{labelOp},
	)

	releaseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_release_failures_total",
			Help: "Number of connections, result sets and statements that failed to close",
		},
		[]string{labelResource},
	)
)

func observe(op string, start time.Time, err error) {
	status := statusOK
	if err != nil {
		status = statusError
	}
	queriesTotal.WithLabelValues(op, status).Inc()
	queryDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
