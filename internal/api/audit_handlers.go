// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/gatecheck/internal/audit"
	"github.com/tomtom215/gatecheck/internal/evidence"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
	"github.com/tomtom215/gatecheck/internal/report"
	"github.com/tomtom215/gatecheck/internal/validation"
)

// createAuditRequest is the body of POST /api/audits. Option fields are
// pointers so an absent field gets its default rather than the zero value.
type createAuditRequest struct {
	SessionID          string `json:"session_id"`
	MaxPages           *int   `json:"max_pages"`
	MaxDepth           *int   `json:"max_depth"`
	EnableFormSubmit   *bool  `json:"enable_form_submit"`
	IncludeScreenshots *bool  `json:"include_screenshots"`
	ProbeInteractions  *bool  `json:"probe_interactions"`
	RunAccessibility   *bool  `json:"run_accessibility"`
}

// auditOptions resolves the request against the configured defaults.
func (s *Server) auditOptions(req createAuditRequest) models.AuditOptions {
	opts := models.AuditOptions{
		MaxPages:           s.cfg.Audit.MaxPagesDefault,
		MaxDepth:           s.cfg.Audit.MaxDepthDefault,
		EnableFormSubmit:   false,
		IncludeScreenshots: true,
		ProbeInteractions:  false,
		RunAccessibility:   true,
	}
	if req.MaxPages != nil {
		opts.MaxPages = *req.MaxPages
	}
	if req.MaxDepth != nil {
		opts.MaxDepth = *req.MaxDepth
	}
	if req.EnableFormSubmit != nil {
		opts.EnableFormSubmit = *req.EnableFormSubmit
	}
	if req.IncludeScreenshots != nil {
		opts.IncludeScreenshots = *req.IncludeScreenshots
	}
	if req.ProbeInteractions != nil {
		opts.ProbeInteractions = *req.ProbeInteractions
	}
	if req.RunAccessibility != nil {
		opts.RunAccessibility = *req.RunAccessibility
	}
	return opts
}

// handleCreateAudit validates the session and options, then launches the
// audit on its own goroutine.
func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	var req createAuditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		writeNotFound(w, r, sessionNotFoundMsg)
		return
	}
	if !sess.Authenticated {
		writeForbidden(w, r, "Session not authenticated. Complete login first.")
		return
	}

	opts := s.auditOptions(req)
	if verr := validation.ValidateStruct(opts); verr != nil {
		writeBadRequest(w, r, verr.Error())
		return
	}

	a := s.store.Create(sess.ID, sess.TargetURL, opts)
	go s.runner.Run(sess, a.ID)

	logging.Ctx(r.Context()).Info().
		Str("audit_id", a.ID).
		Str("session_id", sess.ID).
		Int("max_pages", opts.MaxPages).
		Msg("audit started")

	writeJSON(w, r, http.StatusAccepted, map[string]interface{}{
		"audit_id": a.ID,
		"status":   a.Status,
		"message":  fmt.Sprintf("Audit started. Poll /api/audits/%s/status for progress.", a.ID),
	})
}

// auditStatusResponse is the polling payload.
type auditStatusResponse struct {
	AuditID         string             `json:"audit_id"`
	Status          models.AuditStatus `json:"status"`
	Progress        int                `json:"progress"`
	Phase           models.AuditPhase  `json:"phase"`
	Error           string             `json:"error,omitempty"`
	PartialFindings partialFindings    `json:"partial_findings"`
}

type partialFindings struct {
	PagesVisited    int `json:"pages_visited"`
	ConsoleErrors   int `json:"console_errors"`
	NetworkFailures int `json:"network_failures"`
}

func auditToStatus(a *models.Audit) auditStatusResponse {
	return auditStatusResponse{
		AuditID:  a.ID,
		Status:   a.Status,
		Progress: a.Progress,
		Phase:    a.Phase,
		Error:    a.Error,
		PartialFindings: partialFindings{
			PagesVisited:    a.PagesVisited,
			ConsoleErrors:   a.ConsoleErrors,
			NetworkFailures: a.NetworkFailures,
		},
	}
}

// handleAuditStatus reports audit progress.
func (s *Server) handleAuditStatus(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Get(chi.URLParam(r, "auditID"))
	if err != nil {
		writeNotFound(w, r, "Audit not found")
		return
	}
	writeJSON(w, r, http.StatusOK, auditToStatus(a))
}

// getReport fetches the finished report, writing the error response itself
// when it is not available.
func (s *Server) getReport(w http.ResponseWriter, r *http.Request) (*models.AuditReport, bool) {
	rep, err := s.store.Report(chi.URLParam(r, "auditID"))
	switch {
	case errors.Is(err, audit.ErrAuditNotFound):
		writeNotFound(w, r, "Audit not found")
		return nil, false
	case errors.Is(err, audit.ErrReportNotReady):
		writeConflict(w, r, "Audit not complete. Poll the status endpoint until it finishes.")
		return nil, false
	case err != nil:
		writeInternalError(w, r, "Could not load report")
		return nil, false
	}
	return rep, true
}

// handleAuditReport returns the finished report in the web UI's shape.
func (s *Server) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.getReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, report.ToFrontend(rep))
}

// handleAuditReportPDF renders the report as a PDF download.
func (s *Server) handleAuditReportPDF(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.getReport(w, r)
	if !ok {
		return
	}
	pdf := report.RenderPDF(rep)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "audit-"+rep.AuditID+".pdf"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("pdf write aborted")
	}
}

// handleAuditEvidence streams the evidence archive.
func (s *Server) handleAuditEvidence(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.getReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "evidence-"+rep.AuditID+".zip"))
	if err := evidence.WriteArchive(w, rep, s.runner.AuditDir(rep.AuditID)); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("evidence archive failed")
	}
}

// handleAuditPreview serves the most recent live preview frame. The frame
// changes continuously so every cache layer is told to stay out of the way.
func (s *Server) handleAuditPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "auditID")
	if _, err := s.store.Get(id); err != nil {
		writeNotFound(w, r, "Audit not found")
		return
	}

	path := audit.PreviewPath(s.runner.AuditDir(id))
	data, err := os.ReadFile(path)
	if err != nil {
		writeNotFound(w, r, "No preview available yet")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("preview write aborted")
	}
}
