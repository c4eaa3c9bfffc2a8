// Package metrics provides Prometheus collectors for index application,
// store queries and the inbox watcher. They are scraped from the /metrics
// endpoint of `catalog inbox watch`.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultStale = "stale"
)

var (
	// IndexAppliesTotal counts index applications by mode (full, diff) and result.
	IndexAppliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_applies_total",
			Help:      "Total number of index applications by mode and result.",
		},
		[]string{"mode", "result"},
	)

	// IndexApplyDurationSeconds is the duration of one index transaction.
	IndexApplyDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_apply_duration_seconds",
			Help:      "Index application duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2.5, 10), // 10ms to ~38s
		},
		[]string{"mode"},
	)

	// IndexPackagesTotal counts package records received from feeds.
	IndexPackagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_packages_total",
			Help:      "Total number of package records processed by mode.",
		},
		[]string{"mode"},
	)

	// DBQueryDurationSeconds is store query latency by operation.
	DBQueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Store query duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 10), // 0.5ms to ~1.9s
		},
		[]string{"operation"},
	)

	// InboxFilesTotal counts index files picked up by the inbox watcher.
	InboxFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_files_total",
			Help:      "Total number of inbox files by result.",
		},
		[]string{"result"},
	)

	// LiveSubscriptionsActive is the number of open live query subscriptions.
	LiveSubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscriptions_active",
			Help:      "Number of active live query subscriptions.",
		},
	)

	// TaskRunsTotal counts scheduled task runs by task and result.
	TaskRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Total number of scheduled task runs by task and result.",
		},
		[]string{"task", "result"},
	)

	// UpdatesAvailable is the number of installed packages with an update
	// found by the last update check.
	UpdatesAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "updates_available",
			Help:      "Installed packages with an available update at the last check.",
		},
	)
)

// ObserveQuery records the duration of a store operation started at start.
func ObserveQuery(operation string, start time.Time) {
	DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveApply records the outcome of one index application.
func ObserveApply(mode, result string, start time.Time) {
	IndexAppliesTotal.WithLabelValues(mode, result).Inc()
	IndexApplyDurationSeconds.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
