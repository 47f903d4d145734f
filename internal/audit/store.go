// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package audit runs production-readiness audits: a bounded same-origin
// crawl of an authenticated target with browser telemetry capture, followed
// by passive security and accessibility checks.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/gatecheck/internal/models"
)

// ErrAuditNotFound is returned for unknown audit IDs.
var ErrAuditNotFound = fmt.Errorf("audit not found")

// ErrReportNotReady is returned when a report is requested before the audit
// completes.
var ErrReportNotReady = fmt.Errorf("audit not complete")

// phaseProgress maps each phase to its fixed progress percentage.
var phaseProgress = map[models.AuditPhase]int{
	models.PhaseStarting:             5,
	models.PhaseCheckingAvailability: 10,
	models.PhaseCrawling:             20,
	models.PhaseSecurityCheck:        85,
	models.PhaseAccessibilityCheck:   90,
	models.PhaseComplete:             100,
}

// ProgressListener receives a status snapshot after every store update.
type ProgressListener func(models.Audit)

// Store is the in-memory audit table. All mutation goes through it so
// status polling, the websocket stream, and the runner never race.
type Store struct {
	mu      sync.Mutex
	audits  map[string]*models.Audit
	reports map[string]*models.AuditReport

	listeners map[string][]ProgressListener
}

// NewStore creates an empty audit store.
func NewStore() *Store {
	return &Store{
		audits:    make(map[string]*models.Audit),
		reports:   make(map[string]*models.AuditReport),
		listeners: make(map[string][]ProgressListener),
	}
}

// Create registers a new pending audit.
func (s *Store) Create(sessionID, url string, opts models.AuditOptions) *models.Audit {
	a := &models.Audit{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		URL:       url,
		Status:    models.AuditPending,
		Progress:  0,
		Phase:     models.PhaseStarting,
		Options:   opts,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.audits[a.ID] = a
	snapshot := *a
	s.mu.Unlock()
	return &snapshot
}

// Get returns a snapshot of the audit.
func (s *Store) Get(id string) (*models.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.audits[id]
	if !ok {
		return nil, ErrAuditNotFound
	}
	snapshot := *a
	return &snapshot, nil
}

// SetPhase moves the audit to a fixed-percentage phase.
func (s *Store) SetPhase(id string, phase models.AuditPhase) {
	progress, ok := phaseProgress[phase]
	if !ok {
		progress = 0
	}
	s.update(id, func(a *models.Audit) {
		a.Status = models.AuditRunning
		a.Phase = phase
		a.Progress = progress
	})
}

// SetPageProgress reports per-page progress inside the auditing_pages phase:
// 20 + i/total*60. The stored percent never moves backwards, so a frontier
// that widens mid-crawl cannot make pollers see progress regress.
func (s *Store) SetPageProgress(id string, index, total int) {
	if total < 1 {
		total = 1
	}
	progress := 20 + int(float64(index)/float64(total)*60)
	s.update(id, func(a *models.Audit) {
		a.Status = models.AuditRunning
		a.Phase = models.PhaseAuditingPages
		if progress > a.Progress {
			a.Progress = progress
		}
	})
}

// SetCounts updates the partial-findings counters shown while running.
func (s *Store) SetCounts(id string, pages, consoleErrors, networkFailures int) {
	s.update(id, func(a *models.Audit) {
		a.PagesVisited = pages
		a.ConsoleErrors = consoleErrors
		a.NetworkFailures = networkFailures
	})
}

// Complete stores the final report and marks the audit complete.
func (s *Store) Complete(id string, report *models.AuditReport) {
	s.mu.Lock()
	s.reports[id] = report
	s.mu.Unlock()
	s.update(id, func(a *models.Audit) {
		a.Status = models.AuditComplete
		a.Phase = models.PhaseComplete
		a.Progress = 100
		a.EndedAt = time.Now()
	})
}

// Fail marks the audit failed with the given reason.
func (s *Store) Fail(id string, reason string) {
	s.update(id, func(a *models.Audit) {
		a.Status = models.AuditFailed
		a.Error = reason
		a.EndedAt = time.Now()
	})
}

// Report returns the final report, or ErrReportNotReady until completion.
func (s *Store) Report(id string) (*models.AuditReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.audits[id]; !ok {
		return nil, ErrAuditNotFound
	}
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotReady
	}
	return report, nil
}

// ActiveCount returns the number of audits currently pending or running.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.audits {
		if a.Status == models.AuditPending || a.Status == models.AuditRunning {
			n++
		}
	}
	return n
}

// Subscribe registers a progress listener for one audit. The returned func
// unsubscribes.
func (s *Store) Subscribe(id string, fn ProgressListener) func() {
	s.mu.Lock()
	s.listeners[id] = append(s.listeners[id], fn)
	idx := len(s.listeners[id]) - 1
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		listeners := s.listeners[id]
		if idx < len(listeners) {
			listeners[idx] = nil
		}
	}
}

// update applies fn under the lock and notifies listeners with the new
// snapshot.
func (s *Store) update(id string, fn func(*models.Audit)) {
	s.mu.Lock()
	a, ok := s.audits[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(a)
	snapshot := *a
	listeners := append([]ProgressListener(nil), s.listeners[id]...)
	s.mu.Unlock()

	for _, l := range listeners {
		if l != nil {
			l(snapshot)
		}
	}
}
