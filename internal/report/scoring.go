// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package report turns collected audit evidence into scored reports and
// their export formats.
package report

import (
	"github.com/tomtom215/gatecheck/internal/models"
)

// Per-issue score weights.
const (
	consoleErrorWeight   = 2
	networkFailureWeight = 3
	uiFlowWeight         = 4
	securityIssueWeight  = 3
)

// Findings is the aggregated evidence a score is computed from.
type Findings struct {
	ConsoleErrors   int
	NetworkFailures int
	UIFlowIssues    int
	SecurityIssues  int
	SlowEndpoints   int
	LargeAssets     int
	A11yViolations  int
}

// CalculateScore computes the overall 0-100 score. Each category's penalty
// is capped so a single disastrous category cannot zero the whole report on
// its own.
func CalculateScore(f Findings) int {
	score := 100
	score -= capped(consoleErrorWeight*f.ConsoleErrors, 20)
	score -= capped(networkFailureWeight*f.NetworkFailures, 20)
	score -= capped(uiFlowWeight*f.UIFlowIssues, 20)
	score -= capped(securityIssueWeight*f.SecurityIssues, 20)
	score -= capped(f.A11yViolations, 10)
	score -= capped(f.SlowEndpoints, 10)
	if score < 0 {
		score = 0
	}
	return score
}

// Grade maps a score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// CategoryScores computes the per-category breakdown shown in reports.
func CategoryScores(f Findings) []models.CategoryScore {
	return []models.CategoryScore{
		{
			Category:    "Console Errors",
			Score:       floor0(20 - consoleErrorWeight*f.ConsoleErrors),
			MaxScore:    20,
			IssuesCount: f.ConsoleErrors,
		},
		{
			Category:    "Network/API",
			Score:       floor0(20 - networkFailureWeight*f.NetworkFailures),
			MaxScore:    20,
			IssuesCount: f.NetworkFailures,
		},
		{
			Category:    "UI Flows",
			Score:       floor0(20 - uiFlowWeight*f.UIFlowIssues),
			MaxScore:    20,
			IssuesCount: f.UIFlowIssues,
		},
		{
			Category:    "Security",
			Score:       floor0(20 - securityIssueWeight*f.SecurityIssues),
			MaxScore:    20,
			IssuesCount: f.SecurityIssues,
		},
		{
			Category:    "Performance",
			Score:       floor0(10 - (f.SlowEndpoints + f.LargeAssets)),
			MaxScore:    10,
			IssuesCount: f.SlowEndpoints + f.LargeAssets,
		},
		{
			Category:    "Accessibility",
			Score:       floor0(10 - f.A11yViolations),
			MaxScore:    10,
			IssuesCount: f.A11yViolations,
		},
	}
}

// CountSecurityIssues weighs security findings: missing HTTPS counts
// double, then one each per missing header and weak cookie.
func CountSecurityIssues(h *models.SecurityHygiene) int {
	if h == nil {
		return 0
	}
	n := 0
	if !h.HTTPSOk {
		n += 2
	}
	n += len(h.HeadersMissing)
	n += len(h.CookieFlagsIssues)
	return n
}

// CountFindings derives the scoring inputs from a report's evidence.
func CountFindings(
	consoleEntries []models.ConsoleEntry,
	networkFailures []models.NetworkFailure,
	uiFlows []models.UIFlowResult,
	hygiene *models.SecurityHygiene,
	perf *models.Performance,
	violations []models.AccessibilityViolation,
) Findings {
	f := Findings{
		// Warnings are part of the captured console list and count with it.
		ConsoleErrors:   len(consoleEntries),
		NetworkFailures: len(networkFailures),
		SecurityIssues:  CountSecurityIssues(hygiene),
		A11yViolations:  len(violations),
	}
	for _, flow := range uiFlows {
		if flow.Status == models.FlowError {
			f.UIFlowIssues++
		}
	}
	if perf != nil {
		f.SlowEndpoints = len(perf.SlowEndpoints)
		f.LargeAssets = len(perf.LargeAssets)
	}
	return f
}

func capped(n, limit int) int {
	if n > limit {
		return limit
	}
	if n < 0 {
		return 0
	}
	return n
}

func floor0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
