// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gatecheck/internal/logging"
)

// APIError is the JSON error body every endpoint returns.
type APIError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// rateLimitError extends the error body with a retry hint.
type rateLimitError struct {
	APIError
	RetryAfterSeconds int `json:"retry_after_seconds"`
}

// writeJSON serializes v with the given status. Encoding failures are logged;
// the status line has already been sent by then.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("response encoding failed")
	}
}

// writeError sends the standard error body.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, APIError{
		Error:      code,
		Message:    message,
		StatusCode: status,
	})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, "bad_request", message)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusNotFound, "not_found", message)
}

func writeConflict(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusConflict, "conflict", message)
}

func writeForbidden(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusForbidden, "forbidden", message)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusInternalServerError, "internal_error", message)
}

// writeRateLimited sends the 429 body with Retry-After.
func writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfterSeconds int) {
	w.Header().Set("Retry-After", "60")
	writeJSON(w, r, http.StatusTooManyRequests, rateLimitError{
		APIError: APIError{
			Error:      "rate_limit_exceeded",
			Message:    "Too many audit requests. Try again later.",
			StatusCode: http.StatusTooManyRequests,
		},
		RetryAfterSeconds: retryAfterSeconds,
	})
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
