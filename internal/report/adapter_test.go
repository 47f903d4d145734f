// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"testing"
	"time"

	"github.com/tomtom215/gatecheck/internal/models"
)

func TestToFrontendCategoriesAndCounts(t *testing.T) {
	rep := Build(testEvidence())
	fr := ToFrontend(rep)

	if fr.OverallScore != rep.Score || fr.Grade != rep.Grade {
		t.Errorf("score/grade mismatch: %d/%s vs %d/%s", fr.OverallScore, fr.Grade, rep.Score, rep.Grade)
	}
	if fr.TargetURL != rep.URL {
		t.Errorf("target_url = %q", fr.TargetURL)
	}
	if len(fr.CategoryScores) != 6 {
		t.Fatalf("category scores = %d, want 6", len(fr.CategoryScores))
	}

	byCat := map[string]models.FrontendCategoryScore{}
	for _, cs := range fr.CategoryScores {
		byCat[cs.Category] = cs
	}
	for _, key := range []string{"console", "network", "ui_flow", "security", "performance", "accessibility"} {
		if _, ok := byCat[key]; !ok {
			t.Errorf("missing category key %q", key)
		}
	}

	// One console error finding, severity high.
	if got := byCat["console"].HighCount; got != 1 {
		t.Errorf("console high count = %d, want 1", got)
	}
	// One network 500 finding, severity high.
	if got := byCat["network"].HighCount; got != 1 {
		t.Errorf("network high count = %d, want 1", got)
	}
	// One missing-header finding, severity medium.
	if got := byCat["security"].MediumCount; got != 1 {
		t.Errorf("security medium count = %d, want 1", got)
	}
	if byCat["console"].Weight != 20 || byCat["performance"].Weight != 10 {
		t.Errorf("weights = console %d performance %d, want 20/10",
			byCat["console"].Weight, byCat["performance"].Weight)
	}
}

func TestToFrontendFindings(t *testing.T) {
	rep := Build(testEvidence())
	fr := ToFrontend(rep)

	// 1 console + 1 network + 1 ui flow (ok page skipped) + 1 missing headers.
	if len(fr.Findings) != 4 {
		t.Fatalf("findings = %d, want 4: %+v", len(fr.Findings), fr.Findings)
	}
	seen := map[string]bool{}
	for _, f := range fr.Findings {
		if f.ID == "" || f.Timestamp == "" || f.RecommendedFix == "" {
			t.Errorf("finding missing id/timestamp/fix: %+v", f)
		}
		if seen[f.ID] {
			t.Errorf("duplicate finding id %q", f.ID)
		}
		seen[f.ID] = true
	}
}

func TestToFrontendSeverityMaps(t *testing.T) {
	consoleTests := []struct {
		sev  models.Severity
		want string
	}{
		{models.SeverityError, "high"},
		{models.SeverityWarning, "medium"},
		{models.SeverityInfo, "info"},
		{models.Severity("debug"), "low"},
	}
	for _, tt := range consoleTests {
		if got := mapConsoleSeverity(tt.sev); got != tt.want {
			t.Errorf("mapConsoleSeverity(%q) = %q, want %q", tt.sev, got, tt.want)
		}
	}

	impactTests := []struct {
		impact string
		want   string
	}{
		{"critical", "high"},
		{"serious", "high"},
		{"moderate", "medium"},
		{"", "medium"},
		{"minor", "low"},
	}
	for _, tt := range impactTests {
		if got := mapImpactSeverity(tt.impact); got != tt.want {
			t.Errorf("mapImpactSeverity(%q) = %q, want %q", tt.impact, got, tt.want)
		}
	}
}

func TestToFrontendPagesFallback(t *testing.T) {
	now := time.Now()
	rep := Build(Evidence{
		AuditID:    "a-3",
		SessionID:  "s-3",
		URL:        "https://solo.example.com",
		StartedAt:  now,
		FinishedAt: now,
	})
	fr := ToFrontend(rep)

	if len(fr.PagesCrawled) != 1 || fr.PagesCrawled[0] != "https://solo.example.com" {
		t.Errorf("pages_crawled = %v, want fallback to target url", fr.PagesCrawled)
	}
}

func TestToFrontendPerformanceSeverities(t *testing.T) {
	now := time.Now()
	rep := Build(Evidence{
		AuditID:   "a-4",
		SessionID: "s-4",
		URL:       "https://perf.example.com",
		Performance: &models.Performance{
			SlowEndpoints: []models.SlowEndpoint{
				{URL: "https://perf.example.com/slow", Method: "GET", DurationMS: 1800},
				{URL: "https://perf.example.com/very-slow", Method: "GET", DurationMS: 4500},
			},
			LargeAssets: []models.LargeAsset{
				{URL: "https://perf.example.com/huge.png", SizeBytes: 3_000_000},
				{URL: "https://perf.example.com/ok.js", SizeBytes: 700_000},
			},
		},
		StartedAt:  now,
		FinishedAt: now,
	})
	fr := ToFrontend(rep)

	sevByURL := map[string]string{}
	for _, f := range fr.Findings {
		sevByURL[f.AffectedURL] = f.Severity
	}
	if sevByURL["https://perf.example.com/slow"] != "low" {
		t.Errorf("1800ms endpoint severity = %q, want low", sevByURL["https://perf.example.com/slow"])
	}
	if sevByURL["https://perf.example.com/very-slow"] != "medium" {
		t.Errorf(">3000ms endpoint severity = %q, want medium", sevByURL["https://perf.example.com/very-slow"])
	}
	if sevByURL["https://perf.example.com/huge.png"] != "medium" {
		t.Errorf(">2MB asset severity = %q, want medium", sevByURL["https://perf.example.com/huge.png"])
	}
	if sevByURL["https://perf.example.com/ok.js"] != "low" {
		t.Errorf("small asset severity = %q, want low", sevByURL["https://perf.example.com/ok.js"])
	}
}
