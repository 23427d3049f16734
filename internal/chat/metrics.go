package chat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stagePolicy   = "policy"
	stageGenerate = "generate"
	stageFormat   = "format"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_chat_requests_total",
		Help: "Chat requests by profile and pipeline outcome",
	}, []string{"profile", "outcome"})

	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_statement_extractions_total",
		Help: "Completion replies by extraction tier (none means direct answer)",
	}, []string{"tier"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrdesk_completion_duration_seconds",
		Help:    "Latency of completion calls by pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	}, []string{"stage", "status"})

	fallbackFormatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrdesk_fallback_formats_total",
		Help: "Data answers rendered by the deterministic formatter after a failed format call",
	})

	conversationLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrdesk_conversation_log_dropped_total",
		Help: "Conversation log events dropped because the queue was full",
	})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrdesk_chat_rate_limited_total",
		Help: "Chat requests rejected by the per-session rate limiter",
	})
)

func observeCompletion(stage string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	completionDuration.WithLabelValues(stage, status).Observe(time.Since(start).Seconds())
}
