// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package metrics provides Prometheus instrumentation for the API surface,
// the session pool, and the audit engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatecheck_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatecheck_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatecheck_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatecheck_api_rate_limit_hits_total",
			Help: "Total number of rate-limited requests",
		},
		[]string{"endpoint"},
	)

	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatecheck_sessions_active",
			Help: "Number of unexpired login sessions",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatecheck_sessions_created_total",
			Help: "Total number of login sessions created",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatecheck_sessions_expired_total",
			Help: "Total number of sessions reaped after TTL expiry",
		},
	)

	// Browser Metrics
	BrowserTabsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gatecheck_browser_tabs_open",
			Help: "Number of Chrome tabs currently open",
		},
	)

	// Audit Metrics
	AuditsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gatecheck_audits_started_total",
			Help: "Total number of audits started",
		},
	)

	AuditsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatecheck_audits_completed_total",
			Help: "Total number of audits finished, by outcome",
		},
		[]string{"outcome"},
	)

	AuditDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gatecheck_audit_duration_seconds",
			Help:    "Wall-clock duration of completed audits",
			Buckets: []float64{5, 15, 30, 60, 120, 180, 300, 600},
		},
	)

	AuditPagesVisited = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gatecheck_audit_pages_visited",
			Help:    "Pages visited per audit",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts one rejected request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordAuditOutcome records a finished audit.
func RecordAuditOutcome(outcome string, duration time.Duration, pages int) {
	AuditsCompleted.WithLabelValues(outcome).Inc()
	AuditDuration.Observe(duration.Seconds())
	AuditPagesVisited.Observe(float64(pages))
}
