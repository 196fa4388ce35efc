// Agilepath - Team Practice Maturity Analytics and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agilepath

// Package metrics provides Prometheus instrumentation for the HTTP
// surface, the recommendation core, and long-running jobs. Metrics are
// registered with the default registry and served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP surface.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agilepath_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agilepath_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation core.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agilepath_recommendations_total",
			Help: "Total number of recommendation requests served",
		},
		[]string{"outcome"}, // "ok", "insufficient_history", "not_found", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agilepath_recommendation_duration_seconds",
			Help:    "Duration of recommendation computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Long-running jobs.
	JobsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agilepath_jobs_started_total",
			Help: "Total number of background jobs started",
		},
		[]string{"kind"}, // "backtest", "optimize"
	)

	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agilepath_jobs_finished_total",
			Help: "Total number of background jobs finished",
		},
		[]string{"kind", "state"}, // state: completed, failed, cancelled
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agilepath_job_duration_seconds",
			Help: "Duration of background jobs in seconds",
			// Backtests and sweeps run far longer than HTTP requests.
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"kind"},
	)

	// Dataset shape, set once at load time.
	DatasetTeams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilepath_dataset_teams",
			Help: "Number of teams in the loaded dataset",
		},
	)

	DatasetPractices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilepath_dataset_practices",
			Help: "Number of practices in the loaded catalog",
		},
	)

	DatasetPeriods = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agilepath_dataset_periods",
			Help: "Number of distinct periods in the loaded dataset",
		},
	)
)

// RecordAPIRequest records one served API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendation records one recommendation computation.
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordJobStarted records a background job start.
func RecordJobStarted(kind string) {
	JobsStarted.WithLabelValues(kind).Inc()
}

// RecordJobFinished records a background job completion.
func RecordJobFinished(kind, state string, duration time.Duration) {
	JobsFinished.WithLabelValues(kind, state).Inc()
	JobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetDatasetShape publishes the loaded dataset's dimensions.
func SetDatasetShape(teams, practices, periods int) {
	DatasetTeams.Set(float64(teams))
	DatasetPractices.Set(float64(practices))
	DatasetPeriods.Set(float64(periods))
}
