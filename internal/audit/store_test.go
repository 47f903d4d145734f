// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"errors"
	"testing"

	"github.com/tomtom215/gatecheck/internal/models"
)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{MaxPages: 5})

	if a.ID == "" {
		t.Fatal("audit id not assigned")
	}
	if a.Status != models.AuditPending || a.Progress != 0 {
		t.Errorf("new audit = %s/%d, want pending/0", a.Status, a.Progress)
	}

	got, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != "sess-1" || got.URL != "https://app.example.com" {
		t.Errorf("got %+v", got)
	}

	if _, err := s.Get("nope"); !errors.Is(err, ErrAuditNotFound) {
		t.Errorf("unknown id error = %v, want ErrAuditNotFound", err)
	}
}

func TestStorePhaseProgress(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	tests := []struct {
		phase models.AuditPhase
		want  int
	}{
		{models.PhaseStarting, 5},
		{models.PhaseCheckingAvailability, 10},
		{models.PhaseCrawling, 20},
		{models.PhaseSecurityCheck, 85},
		{models.PhaseAccessibilityCheck, 90},
	}
	for _, tt := range tests {
		s.SetPhase(a.ID, tt.phase)
		got, _ := s.Get(a.ID)
		if got.Progress != tt.want || got.Phase != tt.phase {
			t.Errorf("phase %s: progress = %d, want %d", tt.phase, got.Progress, tt.want)
		}
		if got.Status != models.AuditRunning {
			t.Errorf("phase %s: status = %s, want running", tt.phase, got.Status)
		}
	}
}

func TestStorePageProgress(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	tests := []struct {
		index, total, want int
	}{
		{0, 10, 20},
		{0, 0, 20}, // total floored to 1, same percent
		{5, 10, 50},
		{9, 10, 74},
	}
	for _, tt := range tests {
		s.SetPageProgress(a.ID, tt.index, tt.total)
		got, _ := s.Get(a.ID)
		if got.Progress != tt.want {
			t.Errorf("page %d/%d: progress = %d, want %d", tt.index, tt.total, got.Progress, tt.want)
		}
		if got.Phase != models.PhaseAuditingPages {
			t.Errorf("page progress phase = %s", got.Phase)
		}
	}
}

func TestStorePageProgressNeverRegresses(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	s.SetPageProgress(a.ID, 1, 2)
	got, _ := s.Get(a.ID)
	if got.Progress != 50 {
		t.Fatalf("progress = %d, want 50", got.Progress)
	}

	// The crawl frontier widened: the same page index now maps to a lower
	// percent, which must not be visible to pollers.
	s.SetPageProgress(a.ID, 2, 10)
	got, _ = s.Get(a.ID)
	if got.Progress < 50 {
		t.Errorf("progress regressed to %d after total grew", got.Progress)
	}
}

func TestStoreReportGating(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	if _, err := s.Report(a.ID); !errors.Is(err, ErrReportNotReady) {
		t.Errorf("report before completion: %v, want ErrReportNotReady", err)
	}
	if _, err := s.Report("nope"); !errors.Is(err, ErrAuditNotFound) {
		t.Errorf("report for unknown audit: %v, want ErrAuditNotFound", err)
	}

	rep := &models.AuditReport{AuditID: a.ID, Score: 90, Grade: "A"}
	s.Complete(a.ID, rep)

	got, err := s.Report(a.ID)
	if err != nil {
		t.Fatalf("Report after completion: %v", err)
	}
	if got.Score != 90 {
		t.Errorf("report score = %d", got.Score)
	}

	status, _ := s.Get(a.ID)
	if status.Status != models.AuditComplete || status.Progress != 100 || status.Phase != models.PhaseComplete {
		t.Errorf("completed audit = %+v", status)
	}
	if status.EndedAt.IsZero() {
		t.Error("EndedAt not set on completion")
	}
}

func TestStoreFail(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	s.Fail(a.ID, "target unreachable")
	got, _ := s.Get(a.ID)
	if got.Status != models.AuditFailed || got.Error != "target unreachable" {
		t.Errorf("failed audit = %+v", got)
	}
	if _, err := s.Report(a.ID); !errors.Is(err, ErrReportNotReady) {
		t.Errorf("failed audit report err = %v, want ErrReportNotReady", err)
	}
}

func TestStoreCounts(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	s.SetCounts(a.ID, 3, 7, 2)
	got, _ := s.Get(a.ID)
	if got.PagesVisited != 3 || got.ConsoleErrors != 7 || got.NetworkFailures != 2 {
		t.Errorf("counts = %d/%d/%d", got.PagesVisited, got.ConsoleErrors, got.NetworkFailures)
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore()
	a := s.Create("sess-1", "https://app.example.com", models.AuditOptions{})

	var updates []models.Audit
	unsubscribe := s.Subscribe(a.ID, func(snap models.Audit) {
		updates = append(updates, snap)
	})

	s.SetPhase(a.ID, models.PhaseCrawling)
	s.SetCounts(a.ID, 1, 0, 0)

	if len(updates) != 2 {
		t.Fatalf("got %d updates, want 2", len(updates))
	}
	if updates[0].Phase != models.PhaseCrawling || updates[1].PagesVisited != 1 {
		t.Errorf("updates = %+v", updates)
	}

	unsubscribe()
	s.SetPhase(a.ID, models.PhaseSecurityCheck)
	if len(updates) != 2 {
		t.Errorf("listener fired after unsubscribe, %d updates", len(updates))
	}
}

func TestStoreActiveCount(t *testing.T) {
	s := NewStore()
	a1 := s.Create("sess-1", "https://a.example.com", models.AuditOptions{})
	a2 := s.Create("sess-1", "https://b.example.com", models.AuditOptions{})
	if s.ActiveCount() != 2 {
		t.Errorf("active = %d, want 2", s.ActiveCount())
	}

	s.Complete(a1.ID, &models.AuditReport{})
	s.Fail(a2.ID, "x")
	if s.ActiveCount() != 0 {
		t.Errorf("active after finish = %d, want 0", s.ActiveCount())
	}
}
