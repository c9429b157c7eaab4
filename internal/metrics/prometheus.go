package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the hierarchy worker

var (
	// Upstream call metrics
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_api_calls_total",
			Help: "Total number of upstream feed and odds API calls",
		},
		[]string{"endpoint", "status"},
	)

	APICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prizepicks_api_call_duration_seconds",
			Help:    "Duration of upstream calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_source_failures_total",
			Help: "Total number of feed sources that failed and were treated as empty",
		},
		[]string{"source"},
	)

	// Normalization metrics
	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_records_skipped_total",
			Help: "Total number of raw records skipped during normalization",
		},
		[]string{"reason"},
	)

	BucketEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "prizepicks_bucket_entities",
			Help: "Number of entities in the last written bucket",
		},
		[]string{"bucket", "entity"},
	)

	// Rebuild metrics
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_rebuilds_total",
			Help: "Total number of bucket rebuilds",
		},
		[]string{"bucket", "status"},
	)

	RebuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prizepicks_rebuild_duration_seconds",
			Help:    "Duration of bucket rebuilds in seconds",
			Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"bucket"},
	)

	// Rotation metrics
	RotationStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_rotation_steps_total",
			Help: "Total number of rotation steps by outcome",
		},
		[]string{"step", "outcome"},
	)

	RotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_rotations_total",
			Help: "Total number of rotation runs",
		},
		[]string{"status"},
	)

	RotationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prizepicks_rotation_duration_seconds",
			Help:    "Duration of rotation runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ArchiveSnapshots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prizepicks_archive_snapshots",
			Help: "Number of archive snapshots on disk",
		},
	)

	LastSuccessfulRotation = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prizepicks_last_successful_rotation_timestamp",
			Help: "Timestamp of last successful rotation",
		},
	)

	// Odds side channel
	OddsSyncTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_odds_sync_total",
			Help: "Total number of odds snapshot syncs",
		},
		[]string{"sport", "status"},
	)

	// Cache metrics
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prizepicks_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prizepicks_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prizepicks_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordAPICall records an upstream call metric
func RecordAPICall(endpoint, status string, duration float64) {
	APICallsTotal.WithLabelValues(endpoint, status).Inc()
	APICallDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordSourceFailure records a feed source treated as empty
func RecordSourceFailure(source string) {
	SourceFailuresTotal.WithLabelValues(source).Inc()
}

// RecordSkipped adds n skipped records for a reason
func RecordSkipped(reason string, n int) {
	if n <= 0 {
		return
	}
	RecordsSkippedTotal.WithLabelValues(reason).Add(float64(n))
}

// UpdateBucketStats sets the entity gauges of a bucket
func UpdateBucketStats(bucket string, games, teams, players, props, slates int) {
	BucketEntities.WithLabelValues(bucket, "games").Set(float64(games))
	BucketEntities.WithLabelValues(bucket, "teams").Set(float64(teams))
	BucketEntities.WithLabelValues(bucket, "players").Set(float64(players))
	BucketEntities.WithLabelValues(bucket, "props").Set(float64(props))
	BucketEntities.WithLabelValues(bucket, "slates").Set(float64(slates))
}

// RecordRebuild records a bucket rebuild
func RecordRebuild(bucket, status string, duration float64) {
	RebuildsTotal.WithLabelValues(bucket, status).Inc()
	RebuildDuration.WithLabelValues(bucket).Observe(duration)
}

// RecordRotationStep records the outcome of one rotation step
func RecordRotationStep(step, outcome string) {
	RotationStepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordRotation records a rotation run
func RecordRotation(status string, duration float64) {
	RotationsTotal.WithLabelValues(status).Inc()
	RotationDuration.Observe(duration)

	if status == "success" {
		LastSuccessfulRotation.SetToCurrentTime()
	}
}

// RecordOddsSync records an odds snapshot sync for a sport
func RecordOddsSync(sport, status string) {
	OddsSyncTotal.WithLabelValues(sport, status).Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
