// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "jobspy_mcp_"

var searchesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "searches_total",
		Help: "Number of searches handled, by result code",
	},
	[]string{"code"},
)

var searchDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    prefix + "search_duration_seconds",
		Help:    "Wall time of a search from validation to response",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120, 180, 300},
	},
	[]string{"code"},
)

var jobsReturnedHist = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    prefix + "jobs_returned",
		Help:    "Number of jobs returned per successful search",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250, 500},
	},
)

var activeSessionsGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: prefix + "active_sessions",
		Help: "Number of registered streaming sessions",
	},
)

var progressEventsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "progress_events_total",
		Help: "Progress notifications, by delivery outcome",
	},
	[]string{"outcome"},
)

// Outcome labels for RecordProgressEvent.
const (
	OutcomeDelivered = "delivered"
	OutcomeNoSession = "no_session"
	OutcomeFailed    = "failed"
)

// RecordSearch records one finished search.
func RecordSearch(code string, duration time.Duration) {
	searchesCounter.WithLabelValues(code).Inc()
	searchDurationHist.WithLabelValues(code).Observe(duration.Seconds())
}

// RecordJobsReturned records the result size of a successful search.
func RecordJobsReturned(n int) {
	jobsReturnedHist.Observe(float64(n))
}

// SetActiveSessions sets the registered session count.
func SetActiveSessions(n int) {
	activeSessionsGauge.Set(float64(n))
}

// RecordProgressEvent counts one progress emission attempt.
func RecordProgressEvent(outcome string) {
	progressEventsCounter.WithLabelValues(outcome).Inc()
}
