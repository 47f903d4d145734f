// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/session"
)

// HTTPService runs an http.Server as a suture service with graceful
// shutdown when the context is canceled.
type HTTPService struct {
	Server *http.Server

	// ShutdownTimeout bounds the drain on context cancellation.
	ShutdownTimeout time.Duration
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.Server.Addr).Msg("http server listening")
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return suture.ErrDoNotRestart
		}
		return err
	case <-ctx.Done():
		timeout := s.ShutdownTimeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("http server drain incomplete")
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// SessionSweeper periodically reaps expired login sessions so their browser
// tabs and storage state do not linger past the TTL.
type SessionSweeper struct {
	Sessions *session.Manager

	// Interval between sweeps. Defaults to one minute.
	Interval time.Duration
}

// Serve implements suture.Service.
func (s *SessionSweeper) Serve(ctx context.Context) error {
	interval := s.Interval
	if interval == 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sessions.Sweep(); n > 0 {
				logging.Info().Int("expired", n).Msg("sessions swept")
			}
			metrics.SessionsActive.Set(float64(s.Sessions.ActiveCount()))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *SessionSweeper) String() string { return "session-sweeper" }

// ArtifactJanitor removes audit artifact directories (screenshots, preview
// frames) once they outlive the retention window. Reports stay in memory;
// only the on-disk evidence is pruned.
type ArtifactJanitor struct {
	// Dir is the audits artifact root, DataDir/audits.
	Dir string

	// Retention is how long a finished audit's artifacts stay on disk.
	Retention time.Duration

	// InUse reports whether the audit is still running, so a long audit
	// never loses its artifacts mid-flight.
	InUse func(auditID string) bool

	// Interval between prune passes. Defaults to ten minutes.
	Interval time.Duration
}

// Serve implements suture.Service.
func (j *ArtifactJanitor) Serve(ctx context.Context) error {
	interval := j.Interval
	if interval == 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.prune(); n > 0 {
				logging.Info().Int("removed", n).Msg("stale audit artifacts pruned")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// prune removes expired artifact directories and returns how many went.
func (j *ArtifactJanitor) prune() int {
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		return 0
	}

	cutoff := time.Now().Add(-j.Retention)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if j.InUse != nil && j.InUse(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(j.Dir, entry.Name())); err != nil {
			logging.Warn().Err(err).Str("audit_id", entry.Name()).Msg("artifact prune failed")
			continue
		}
		removed++
	}
	return removed
}

func (j *ArtifactJanitor) String() string { return "artifact-janitor" }
