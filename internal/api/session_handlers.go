// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
	"github.com/tomtom215/gatecheck/internal/session"
	"github.com/tomtom215/gatecheck/internal/validation"
)

const sessionNotFoundMsg = "Session not found or expired"

// createSessionRequest is the body of POST /api/sessions.
type createSessionRequest struct {
	TargetURL string `json:"target_url"`
}

// sessionResponse is the session status payload.
type sessionResponse struct {
	SessionID            string `json:"session_id"`
	TargetURL            string `json:"target_url"`
	IsAuthenticated      bool   `json:"is_authenticated"`
	ExpiresAt            string `json:"expires_at"`
	TimeRemainingMinutes int    `json:"time_remaining_minutes"`
}

func sessionToResponse(s *models.Session) sessionResponse {
	return sessionResponse{
		SessionID:            s.ID,
		TargetURL:            s.TargetURL,
		IsAuthenticated:      s.Authenticated,
		ExpiresAt:            s.ExpiresAt.UTC().Format(time.RFC3339),
		TimeRemainingMinutes: s.TimeRemainingMinutes(time.Now()),
	}
}

// handleCreateSession starts an interactive login session: validates the
// target, reserves a session slot, and opens the login tab.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return
	}

	if err := validation.ValidateTargetURL(req.TargetURL, s.cfg.Security.AllowPrivateIPs); err != nil {
		writeBadRequest(w, r, "Invalid target URL: "+err.Error())
		return
	}

	sess, err := s.sessions.Create(validation.NormalizeURL(req.TargetURL))
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) {
			writeError(w, r, http.StatusTooManyRequests, "too_many_sessions",
				"Maximum concurrent sessions reached. Delete a session or wait for one to expire.")
			return
		}
		writeInternalError(w, r, "Could not create session")
		return
	}

	if err := s.browser.OpenLoginTab(sess); err != nil {
		s.sessions.Delete(sess.ID)
		logging.Ctx(r.Context()).Error().Err(err).Msg("login tab open failed")
		writeInternalError(w, r, "Could not open browser for login")
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("session_id", sess.ID).
		Str("target_url", sess.TargetURL).
		Msg("session created")

	writeJSON(w, r, http.StatusCreated, sessionToResponse(sess))
}

// handleGetSession reports session status.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeNotFound(w, r, sessionNotFoundMsg)
		return
	}
	writeJSON(w, r, http.StatusOK, sessionToResponse(sess))
}

// handleConfirmLogin snapshots the login tab's storage state and marks the
// session authenticated.
func (s *Server) handleConfirmLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeNotFound(w, r, sessionNotFoundMsg)
		return
	}

	if err := s.browser.SaveStorageState(sess); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("session_id", sess.ID).Msg("storage state capture failed")
		writeInternalError(w, r, "Could not capture login state. Is the login tab still open?")
		return
	}
	if err := s.sessions.MarkAuthenticated(sess.ID); err != nil {
		writeNotFound(w, r, sessionNotFoundMsg)
		return
	}

	sess, err = s.sessions.Get(sess.ID)
	if err != nil {
		writeNotFound(w, r, sessionNotFoundMsg)
		return
	}
	logging.Ctx(r.Context()).Info().Str("session_id", sess.ID).Msg("login confirmed")
	writeJSON(w, r, http.StatusOK, sessionToResponse(sess))
}

// handleDeleteSession closes the login tab and removes the session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.browser.CloseTab(browser.SessionTabKey(id))
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}
