// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"testing"

	"github.com/tomtom215/gatecheck/internal/models"
)

func TestCalculateScorePerfect(t *testing.T) {
	if got := CalculateScore(Findings{}); got != 100 {
		t.Errorf("empty findings score = %d, want 100", got)
	}
}

func TestCalculateScoreWeights(t *testing.T) {
	tests := []struct {
		name string
		f    Findings
		want int
	}{
		{"one console error", Findings{ConsoleErrors: 1}, 98},
		{"one network failure", Findings{NetworkFailures: 1}, 97},
		{"one ui flow issue", Findings{UIFlowIssues: 1}, 96},
		{"one security issue", Findings{SecurityIssues: 1}, 97},
		{"one a11y violation", Findings{A11yViolations: 1}, 99},
		{"one slow endpoint", Findings{SlowEndpoints: 1}, 99},
		{"console cap at 20", Findings{ConsoleErrors: 50}, 80},
		{"network cap at 20", Findings{NetworkFailures: 50}, 80},
		{"ui flow cap at 20", Findings{UIFlowIssues: 50}, 80},
		{"security cap at 20", Findings{SecurityIssues: 50}, 80},
		{"a11y cap at 10", Findings{A11yViolations: 50}, 90},
		{"slow cap at 10", Findings{SlowEndpoints: 50}, 90},
		{
			"everything maxed clamps to 0",
			Findings{ConsoleErrors: 99, NetworkFailures: 99, UIFlowIssues: 99, SecurityIssues: 99, A11yViolations: 99, SlowEndpoints: 99},
			0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateScore(tt.f); got != tt.want {
				t.Errorf("CalculateScore(%+v) = %d, want %d", tt.f, got, tt.want)
			}
		})
	}
}

func TestGradeBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		if got := Grade(tt.score); got != tt.want {
			t.Errorf("Grade(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCountSecurityIssues(t *testing.T) {
	if got := CountSecurityIssues(nil); got != 0 {
		t.Errorf("nil hygiene = %d, want 0", got)
	}

	h := &models.SecurityHygiene{
		HTTPSOk:        false,
		HeadersMissing: []string{"Content-Security-Policy", "X-Frame-Options"},
		CookieFlagsIssues: []models.CookieIssue{
			{Name: "sid", Issues: []string{"missing Secure flag"}},
		},
	}
	// 2 for missing HTTPS + 2 headers + 1 cookie.
	if got := CountSecurityIssues(h); got != 5 {
		t.Errorf("security issues = %d, want 5", got)
	}

	h.HTTPSOk = true
	if got := CountSecurityIssues(h); got != 3 {
		t.Errorf("security issues with https = %d, want 3", got)
	}
}

func TestCategoryScoresFloors(t *testing.T) {
	scores := CategoryScores(Findings{ConsoleErrors: 99, A11yViolations: 99})
	if len(scores) != 6 {
		t.Fatalf("got %d categories, want 6", len(scores))
	}
	for _, cs := range scores {
		if cs.Score < 0 {
			t.Errorf("category %s score %d went negative", cs.Category, cs.Score)
		}
	}
	if scores[0].Category != "Console Errors" || scores[0].Score != 0 {
		t.Errorf("console category = %+v, want score 0", scores[0])
	}
	if scores[1].Score != 20 {
		t.Errorf("untouched network category score = %d, want 20", scores[1].Score)
	}
}

func TestCountFindings(t *testing.T) {
	f := CountFindings(
		[]models.ConsoleEntry{
			{Severity: models.SeverityError},
			{Severity: models.SeverityWarning},
			{Severity: models.SeverityError},
		},
		[]models.NetworkFailure{{URL: "https://a.example/api"}},
		[]models.UIFlowResult{
			{Status: models.FlowOK},
			{Status: models.FlowWarning},
			{Status: models.FlowError},
		},
		&models.SecurityHygiene{HTTPSOk: true, HeadersMissing: []string{"X-Frame-Options"}},
		&models.Performance{
			SlowEndpoints: []models.SlowEndpoint{{URL: "https://a.example/slow"}},
			LargeAssets: []models.LargeAsset{
				{URL: "https://a.example/big.png", SizeBytes: 3_000_000},
				{URL: "https://a.example/medium.js", SizeBytes: 600_000},
			},
		},
		[]models.AccessibilityViolation{{ID: "color-contrast"}},
	)

	if f.ConsoleErrors != 3 {
		t.Errorf("ConsoleErrors = %d, want 3 (warnings count with errors)", f.ConsoleErrors)
	}
	if f.NetworkFailures != 1 {
		t.Errorf("NetworkFailures = %d, want 1", f.NetworkFailures)
	}
	if f.UIFlowIssues != 1 {
		t.Errorf("UIFlowIssues = %d, want 1 (only error flows count)", f.UIFlowIssues)
	}
	if f.SecurityIssues != 1 {
		t.Errorf("SecurityIssues = %d, want 1", f.SecurityIssues)
	}
	if f.SlowEndpoints != 1 {
		t.Errorf("SlowEndpoints = %d, want 1", f.SlowEndpoints)
	}
	if f.LargeAssets != 2 {
		t.Errorf("LargeAssets = %d, want 2", f.LargeAssets)
	}
	if f.A11yViolations != 1 {
		t.Errorf("A11yViolations = %d, want 1", f.A11yViolations)
	}
}
