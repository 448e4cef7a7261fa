// Package metrics exposes the Prometheus collectors of the dashboard and the
// mirror worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energydash_commits_total",
		Help: "Working set commits by outcome",
	}, []string{"status"})

	RecordsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energydash_records_committed_total",
		Help: "Pending edits written by successful commits",
	})

	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energydash_imports_total",
		Help: "CSV imports by outcome",
	}, []string{"status"})

	ImportedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energydash_imported_records_total",
		Help: "Records appended by CSV imports",
	})

	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energydash_exports_total",
		Help: "Downloads by export format",
	}, []string{"format"})

	PendingEdits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "energydash_pending_edits",
		Help: "Uncommitted edits across live sessions",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "energydash_active_sessions",
		Help: "Sessions currently held in memory",
	})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "energydash_rate_limit_hits_total",
		Help: "Requests rejected by the rate limiter",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "energydash_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	MirrorRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energydash_mirror_runs_total",
		Help: "Snapshot mirror attempts by mirror and outcome",
	}, []string{"mirror", "status"})

	LastMirroredCommit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "energydash_last_mirrored_commit",
		Help: "Id of the newest commit mirrored by the worker",
	})
)

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusOf maps an error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
