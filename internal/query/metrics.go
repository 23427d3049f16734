package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_query_executions_total",
		Help: "Generated statements by outcome (ok, error, rejected)",
	}, []string{"outcome"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hrdesk_query_duration_seconds",
		Help:    "Latency of generated statement execution",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})
)

func observeQuery(outcome string, elapsed time.Duration) {
	queryTotal.WithLabelValues(outcome).Inc()
	if outcome != "rejected" {
		queryDuration.Observe(elapsed.Seconds())
	}
}
