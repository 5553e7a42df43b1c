package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(stubJobsTotal, stubRateLimited) }

var stubJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stub_jobs_total",
		Help: "Jobs created on the stub backend, labeled by type.",
	},
	[]string{"type"}, // 'generate', 'modify'
)

var stubRateLimited = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "stub_rate_limited_total",
		Help: "Job creations rejected by the stub backend's rate limiter.",
	},
)

func IncStubJob(jobType string) {
	stubJobsTotal.WithLabelValues(norm(jobType)).Inc()
}

func IncStubRateLimited() {
	stubRateLimited.Inc()
}
