// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package api exposes the HTTP surface: session lifecycle, audit control,
// progress streaming, and report downloads.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/gatecheck/internal/audit"
	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/config"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/middleware"
	"github.com/tomtom215/gatecheck/internal/session"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	browser  *browser.Manager
	store    *audit.Store
	runner   *audit.Runner
}

// NewServer wires the API against its collaborators.
func NewServer(cfg *config.Config, sessions *session.Manager, browserMgr *browser.Manager, store *audit.Store, runner *audit.Runner) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		browser:  browserMgr,
		store:    store,
		runner:   runner,
	}
}

// Router builds the chi router with the full middleware chain.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compression)
	r.Use(middleware.PrometheusMetrics)

	if len(s.cfg.Security.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health and metrics stay outside the rate limit; everything under
	// /api shares the per-IP window.
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter())

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/confirm-login", s.handleConfirmLogin)
				r.Delete("/", s.handleDeleteSession)
			})
		})

		r.Route("/audits", func(r chi.Router) {
			r.Post("/", s.handleCreateAudit)
			r.Route("/{auditID}", func(r chi.Router) {
				r.Get("/status", s.handleAuditStatus)
				r.Get("/report", s.handleAuditReport)
				r.Get("/report.pdf", s.handleAuditReportPDF)
				r.Get("/evidence.zip", s.handleAuditEvidence)
				r.Get("/preview", s.handleAuditPreview)
				r.Get("/ws", s.handleAuditWS)
			})
		})
	})

	return r
}

// rateLimiter limits API requests per client IP.
func (s *Server) rateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(
		s.cfg.Audit.RateLimitPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return middleware.ClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(r.URL.Path)
			writeRateLimited(w, r, 60)
		}),
	)
}

// handleHealth reports liveness with the current working set.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": s.sessions.ActiveCount(),
		"active_audits":   s.store.ActiveCount(),
	})
}

// HTTPServer builds the http.Server for the supervisor to run.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Server.Timeout,
		// Writes stay unbounded: report downloads and the websocket
		// stream outlive any fixed request timeout.
	}
}
