package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(pollSessionsTotal, pollSessionSeconds, statusPollsTotal, pollAttemptsObserved)
}

var pollSessionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "poll_sessions_total",
		Help: "Total number of poll sessions, labeled by terminal outcome.",
	},
	[]string{"outcome"}, // 'succeeded', 'failed', 'cancelled', 'timed_out'
)

var pollSessionSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "poll_session_duration_seconds",
		Help:    "Poll session duration from start to terminal outcome.",
		Buckets: []float64{1, 3, 5, 10, 20, 30, 60, 120, 180, 300},
	},
)

var statusPollsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "status_polls_total",
		Help: "Total number of job status requests issued by the poll loop.",
	},
)

var pollAttemptsObserved = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "poll_attempts_observed",
		Help:    "Attempt index reached when a session ended.",
		Buckets: []float64{1, 2, 3},
	},
)

func ObservePollSession(outcome string, d time.Duration, attempts int) {
	pollSessionsTotal.WithLabelValues(norm(outcome)).Inc()
	pollSessionSeconds.Observe(d.Seconds())
	pollAttemptsObserved.Observe(float64(attempts))
}

func IncStatusPoll() {
	statusPollsTotal.Inc()
}
