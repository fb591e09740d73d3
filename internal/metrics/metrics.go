// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543211

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	filesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audibleshelf",
		Name:      "files_processed_total",
		Help:      "Total number of files successfully committed to the library",
	})
	filesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audibleshelf",
		Name:      "files_failed_total",
		Help:      "Total number of files that failed processing by stage",
	}, []string{"stage"})
	filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "audibleshelf",
		Name:      "files_skipped_total",
		Help:      "Total number of files skipped via the processed log",
	})
	catalogRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "audibleshelf",
		Name:      "catalog_requests_total",
		Help:      "Total number of catalog API requests by outcome",
	}, []string{"outcome"})
	commitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "audibleshelf",
		Name:      "commit_duration_seconds",
		Help:      "Histogram of library commit durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(filesProcessed, filesFailed, filesSkipped, catalogRequests, commitDuration)
	})
}

// Pipeline outcome helpers
func IncProcessed()               { filesProcessed.Inc() }
func IncFailed(stage string)      { filesFailed.WithLabelValues(stage).Inc() }
func IncSkipped()                 { filesSkipped.Inc() }
func IncCatalogRequest(out string) { catalogRequests.WithLabelValues(out).Inc() }
func ObserveCommitDuration(d time.Duration) {
	commitDuration.Observe(d.Seconds())
}
