// Package metrics exposes Prometheus collectors for the archiver.
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

var (
	archiveFetchTotal            *prometheus.CounterVec
	archivePolitenessWaitSeconds prometheus.Histogram
	archiveShowsTotal            *prometheus.CounterVec
	archiveCluesDroppedTotal     prometheus.Counter
	archiveGradesTotal           *prometheus.CounterVec
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple
// times; every Observe helper calls it.
func Init() {
	once.Do(func() {
		archiveFetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_fetch_total",
				Help: "Page fetches, labeled by source (cache or network) and status.",
			},
			[]string{"source", "status"},
		)

		archivePolitenessWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "archive_politeness_wait_seconds",
				Help:    "Time spent waiting on the politeness interval before a network request.",
				Buckets: []float64{0.1, 0.5, 1, 1.5, 2, 5, 10},
			},
		)

		archiveShowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_shows_total",
				Help: "Show ingestion attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		archiveCluesDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "archive_clues_dropped_total",
				Help: "Clues dropped because no category could be resolved.",
			},
		)

		archiveGradesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_grades_total",
				Help: "Graded responses, labeled by result.",
			},
			[]string{"result"},
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts one page fetch.
func ObserveFetch(source, status string) {
	Init()
	archiveFetchTotal.WithLabelValues(source, status).Inc()
}

// ObservePolitenessWait records a politeness delay.
func ObservePolitenessWait(d time.Duration) {
	Init()
	archivePolitenessWaitSeconds.Observe(d.Seconds())
}

// ObserveShow counts one show ingestion outcome.
func ObserveShow(outcome string) {
	Init()
	archiveShowsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDroppedClues adds n dropped clues.
func ObserveDroppedClues(n int) {
	Init()
	if n > 0 {
		archiveCluesDroppedTotal.Add(float64(n))
	}
}

// ObserveGrade counts one graded response.
func ObserveGrade(correct bool) {
	Init()
	result := "incorrect"
	if correct {
		result = "correct"
	}
	archiveGradesTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
