// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"fmt"
	"time"

	"github.com/tomtom215/gatecheck/internal/models"
)

// Evidence is everything the audit runner collected for one target.
type Evidence struct {
	AuditID   string
	SessionID string
	URL       string

	PagesVisited    []string
	ConsoleEntries  []models.ConsoleEntry
	NetworkFailures []models.NetworkFailure
	UIFlows         []models.UIFlowResult
	PageTimings     []models.PageTiming
	SecurityHygiene *models.SecurityHygiene
	Performance     *models.Performance
	Accessibility   []models.AccessibilityViolation

	StartedAt  time.Time
	FinishedAt time.Time
}

// Build scores the evidence and assembles the final report.
func Build(ev Evidence) *models.AuditReport {
	findings := CountFindings(
		ev.ConsoleEntries,
		ev.NetworkFailures,
		ev.UIFlows,
		ev.SecurityHygiene,
		ev.Performance,
		ev.Accessibility,
	)

	score := CalculateScore(findings)
	grade := Grade(score)

	rep := &models.AuditReport{
		AuditID:         ev.AuditID,
		SessionID:       ev.SessionID,
		URL:             ev.URL,
		Score:           score,
		Grade:           grade,
		Summary:         summaryText(score, grade, len(ev.PagesVisited), findings),
		Recommendations: recommendations(ev, findings),
		CategoryScores:  CategoryScores(findings),

		PagesVisited:            orEmpty(ev.PagesVisited),
		ConsoleErrors:           orEmptyConsole(ev.ConsoleEntries),
		NetworkFailures:         orEmptyNetwork(ev.NetworkFailures),
		UIFlows:                 orEmptyFlows(ev.UIFlows),
		PageTimings:             orEmptyTimings(ev.PageTimings),
		SecurityHygiene:         ev.SecurityHygiene,
		Performance:             ev.Performance,
		AccessibilityViolations: orEmptyA11y(ev.Accessibility),

		StartedAt:       ev.StartedAt,
		FinishedAt:      ev.FinishedAt,
		DurationSeconds: ev.FinishedAt.Sub(ev.StartedAt).Seconds(),
	}
	return rep
}

// summaryText renders the one-paragraph report summary.
func summaryText(score int, grade string, pages int, f Findings) string {
	quality := "poor"
	switch {
	case score >= 90:
		quality = "excellent"
	case score >= 75:
		quality = "good"
	case score >= 50:
		quality = "moderate"
	}
	return fmt.Sprintf(
		"Production readiness audit completed with %s results. Score: %d/100 (Grade %s). "+
			"Audited %d pages, found %d console errors and %d network failures.",
		quality, score, grade, pages, f.ConsoleErrors, f.NetworkFailures,
	)
}

// maxAffectedURLs caps the URL list attached to each recommendation.
const maxAffectedURLs = 5

// recommendations produces one fixed-template item per non-empty finding
// category, each carrying the first affected URLs. A clean audit gets an
// empty list.
func recommendations(ev Evidence, f Findings) []models.Recommendation {
	recs := []models.Recommendation{}
	add := func(category, message string, urls []string) {
		recs = append(recs, models.Recommendation{
			Category:     category,
			Message:      message,
			AffectedURLs: firstURLs(urls),
		})
	}

	if f.ConsoleErrors > 0 {
		var urls []string
		for _, e := range ev.ConsoleEntries {
			urls = append(urls, e.PageURL)
		}
		add("console", "Fix JavaScript console errors. Check stack traces and add proper exception handling.", urls)
	}
	if f.NetworkFailures > 0 {
		var urls []string
		for _, n := range ev.NetworkFailures {
			urls = append(urls, n.URL)
		}
		add("network", "Fix failing API calls (4xx/5xx errors, CORS, timeouts). Add retries and proper error handling.", urls)
	}
	if f.UIFlowIssues > 0 {
		var urls []string
		for _, flow := range ev.UIFlows {
			if flow.Status == models.FlowError {
				urls = append(urls, flow.PageURL)
			}
		}
		add("ui_flow", "Fix broken pages: resolve blank screens, error messages, and routing problems.", urls)
	}
	if hygiene := ev.SecurityHygiene; hygiene != nil {
		if !hygiene.HTTPSOk {
			add("security", "Enable HTTPS (TLS) and redirect HTTP to HTTPS.", []string{ev.URL})
		}
		if len(hygiene.HeadersMissing) > 0 {
			add("security", "Add recommended security headers (CSP, HSTS, X-Frame-Options) in your server or reverse-proxy configuration.", []string{ev.URL})
		}
		if len(hygiene.CookieFlagsIssues) > 0 {
			add("security", "Set Secure, HttpOnly, and SameSite appropriately on auth/session cookies.", []string{ev.URL})
		}
	}
	if f.SlowEndpoints > 0 || f.LargeAssets > 0 {
		var urls []string
		if ev.Performance != nil {
			for _, s := range ev.Performance.SlowEndpoints {
				urls = append(urls, s.URL)
			}
			for _, a := range ev.Performance.LargeAssets {
				urls = append(urls, a.URL)
			}
		}
		add("performance", "Optimize slow endpoints and large assets: add caching/CDN, compress images, reduce payload size.", urls)
	}
	if f.A11yViolations > 0 {
		var urls []string
		for _, v := range ev.Accessibility {
			urls = append(urls, v.PageURL)
		}
		add("accessibility", "Fix accessibility violations: contrast, labels, and landmarks. Use semantic HTML and aria attributes.", urls)
	}
	return recs
}

// firstURLs keeps the first maxAffectedURLs distinct non-empty URLs.
func firstURLs(urls []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == maxAffectedURLs {
			break
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyConsole(s []models.ConsoleEntry) []models.ConsoleEntry {
	if s == nil {
		return []models.ConsoleEntry{}
	}
	return s
}

func orEmptyTimings(s []models.PageTiming) []models.PageTiming {
	if s == nil {
		return []models.PageTiming{}
	}
	return s
}

func orEmptyNetwork(s []models.NetworkFailure) []models.NetworkFailure {
	if s == nil {
		return []models.NetworkFailure{}
	}
	return s
}

func orEmptyFlows(s []models.UIFlowResult) []models.UIFlowResult {
	if s == nil {
		return []models.UIFlowResult{}
	}
	return s
}

func orEmptyA11y(s []models.AccessibilityViolation) []models.AccessibilityViolation {
	if s == nil {
		return []models.AccessibilityViolation{}
	}
	return s
}
