// Package metrics exposes Prometheus collectors for the cover letter service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the collectors.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	acquisitionAttemptsTotal   *prometheus.CounterVec
	acquisitionFallbackTotal   prometheus.Counter
	generationDurationSeconds  *prometheus.HistogramVec
	lettersTotal               *prometheus.CounterVec
	resumeUploadsTotal         *prometheus.CounterVec
	rateLimitedTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		acquisitionAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coverletter_acquisition_attempts_total",
				Help: "Total number of posting acquisition attempts, labeled by stage and result.",
			},
			[]string{"stage", "result"},
		)

		acquisitionFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "coverletter_acquisition_placeholder_total",
				Help: "Total number of acquisitions that exhausted every stage and used the placeholder posting.",
			},
		)

		generationDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coverletter_generation_duration_seconds",
				Help:    "Histogram of language model invocation latencies, labeled by result.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"result"},
		)

		lettersTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coverletter_letters_total",
				Help: "Total number of letters produced, labeled by source and result.",
			},
			[]string{"source", "result"},
		)

		resumeUploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coverletter_resume_uploads_total",
				Help: "Total number of résumé uploads, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coverletter_rate_limited_total",
				Help: "Total number of requests rejected by the rate limiter, labeled by route.",
			},
			[]string{"route"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps a success flag to a result label.
func Result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// ObserveAcquisition records one stage attempt.
func ObserveAcquisition(stage string, ok bool) {
	Init()
	acquisitionAttemptsTotal.WithLabelValues(stage, Result(ok)).Inc()
}

// ObservePlaceholder records an acquisition that fell through every stage.
func ObservePlaceholder() {
	Init()
	acquisitionFallbackTotal.Inc()
}

// ObserveGeneration records the latency of one model invocation.
func ObserveGeneration(ok bool, duration time.Duration) {
	Init()
	generationDurationSeconds.WithLabelValues(Result(ok)).Observe(duration.Seconds())
}

// ObserveLetter increments the letter counter.
func ObserveLetter(source string, ok bool) {
	Init()
	lettersTotal.WithLabelValues(source, Result(ok)).Inc()
}

// ObserveResumeUpload increments the upload counter.
func ObserveResumeUpload(ok bool) {
	Init()
	resumeUploadsTotal.WithLabelValues(Result(ok)).Inc()
}

// ObserveRateLimited increments the limiter rejection counter.
func ObserveRateLimited(route string) {
	Init()
	rateLimitedTotal.WithLabelValues(route).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
