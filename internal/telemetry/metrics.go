/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Planning metrics
var (
	// PlansTotal counts planning runs by outcome (ok, error, empty_library).
	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_plans_total",
			Help: "Set planning runs by outcome.",
		},
		[]string{"status"},
	)

	PlanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepcrate_plan_duration_seconds",
			Help:    "Time taken to plan a set.",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlanTracks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepcrate_plan_tracks",
			Help:    "Number of tracks in planned sets.",
			Buckets: []float64{1, 6, 8, 12, 16, 20, 24},
		},
	)

	// TransitionScore observes every composite transition score produced by
	// planning and gap analysis.
	TransitionScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepcrate_transition_score",
			Help:    "Composite transition scores.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 1},
		},
		[]string{"risk_mode"},
	)

	GapsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_gaps_detected_total",
			Help: "Weak transitions found, by reason.",
		},
		[]string{"reason"},
	)

	GapAnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deepcrate_gap_analysis_duration_seconds",
			Help:    "Time taken to analyse one set for gaps.",
			Buckets: prometheus.DefBuckets,
		},
	)

	TracksImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepcrate_tracks_imported_total",
			Help: "Tracks written by library imports.",
		},
	)

	ProposalFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepcrate_proposal_failures_total",
			Help: "Candidate proposer calls that failed and fell back to the engine.",
		},
	)
)

// Cache metrics
var (
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_cache_hits_total",
			Help: "Result cache hits by kind.",
		},
		[]string{"kind"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_cache_misses_total",
			Help: "Result cache misses by kind.",
		},
		[]string{"kind"},
	)
)

// Event metrics
var (
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_events_published_total",
			Help: "Events published by type and transport.",
		},
		[]string{"type", "transport"},
	)
)

// Database metrics
var (
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepcrate_database_query_duration_seconds",
			Help:    "Database operation latency.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation", "table"},
	)

	DatabaseErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_database_errors_total",
			Help: "Database operation errors.",
		},
		[]string{"operation", "kind"},
	)

	DatabaseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepcrate_database_connections_active",
			Help: "Open database connections.",
		},
	)
)

// API metrics
var (
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepcrate_api_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepcrate_api_requests_total",
			Help: "HTTP requests served.",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deepcrate_api_active_connections",
			Help: "HTTP requests in flight.",
		},
	)
)

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
