// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/gatecheck/internal/models"
)

// largeAssetMediumBytes is where a large-asset finding escalates from low
// to medium severity in the UI.
const largeAssetMediumBytes = 2_000_000

// Frontend category keys.
var frontendCategories = map[string]string{
	"Console Errors": "console",
	"Network/API":    "network",
	"UI Flows":       "ui_flow",
	"Security":       "security",
	"Performance":    "performance",
	"Accessibility":  "accessibility",
}

// ToFrontend flattens an AuditReport into the shape the web UI renders:
// one finding per observed problem, with per-category severity counts.
func ToFrontend(rep *models.AuditReport) *models.FrontendReport {
	findings := buildFindings(rep)

	categoryScores := make([]models.FrontendCategoryScore, 0, len(rep.CategoryScores))
	for _, cs := range rep.CategoryScores {
		key, ok := frontendCategories[cs.Category]
		if !ok {
			key = strings.ReplaceAll(strings.ToLower(cs.Category), " ", "_")
		}
		counts := severityCounts(findings, key)
		categoryScores = append(categoryScores, models.FrontendCategoryScore{
			Category:      key,
			Score:         cs.Score,
			Weight:        cs.MaxScore,
			FindingsCount: cs.IssuesCount,
			CriticalCount: counts["critical"],
			HighCount:     counts["high"],
			MediumCount:   counts["medium"],
			LowCount:      counts["low"] + counts["info"],
		})
	}

	pages := rep.PagesVisited
	if len(pages) == 0 {
		pages = []string{rep.URL}
	}

	return &models.FrontendReport{
		AuditID:         rep.AuditID,
		SessionID:       rep.SessionID,
		TargetURL:       rep.URL,
		OverallScore:    rep.Score,
		Grade:           rep.Grade,
		CategoryScores:  categoryScores,
		Findings:        findings,
		PagesCrawled:    pages,
		StartedAt:       rep.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:     rep.FinishedAt.UTC().Format(time.RFC3339),
		DurationSeconds: rep.DurationSeconds,
	}
}

// buildFindings turns every captured problem into one frontend finding.
func buildFindings(rep *models.AuditReport) []models.FrontendFinding {
	findings := []models.FrontendFinding{}

	for _, e := range rep.ConsoleErrors {
		evidence := e.Stack
		if evidence == "" {
			evidence = e.Location
		}
		findings = append(findings, newFinding(
			"console",
			mapConsoleSeverity(e.Severity),
			"Console issue",
			orDefault(e.Message, "Console error/warning captured."),
			orDefault(e.PageURL, rep.URL),
			evidence,
			"",
			"Fix the error at the source. Check stack trace and ensure proper exception handling.",
			e.Timestamp,
		))
	}

	for _, n := range rep.NetworkFailures {
		severity := "medium"
		if n.Status >= 500 {
			severity = "high"
		}
		desc := fmt.Sprintf("%s %s", n.Method, n.URL)
		if n.Status > 0 {
			desc += fmt.Sprintf(" -> HTTP %d", n.Status)
		}
		if n.Error != "" {
			desc += " | error=" + n.Error
		}
		if n.DurationMS > 0 {
			desc += fmt.Sprintf(" | %.0fms", n.DurationMS)
		}
		findings = append(findings, newFinding(
			"network",
			severity,
			"Network/API failure",
			desc,
			n.URL,
			"resource_type="+n.ResourceType,
			"",
			"Fix API errors (4xx/5xx), CORS, timeouts. Add retries and proper error handling.",
			time.Time{},
		))
	}

	for _, u := range rep.UIFlows {
		if u.Status == models.FlowOK {
			continue
		}
		severity := "medium"
		if u.Status == models.FlowError {
			severity = "high"
		}
		findings = append(findings, newFinding(
			"ui_flow",
			severity,
			"UI flow issue",
			orDefault(u.Notes, "UI flow warning/error detected."),
			orDefault(u.PageURL, rep.URL),
			"",
			u.ScreenshotPath,
			"Fix routing/render errors, ensure required API calls succeed, and handle empty/error states gracefully.",
			time.Time{},
		))
	}

	if sh := rep.SecurityHygiene; sh != nil {
		if !sh.HTTPSOk {
			findings = append(findings, newFinding(
				"security", "high",
				"HTTPS not enabled",
				"Target URL is not using HTTPS.",
				rep.URL, "", "",
				"Enable HTTPS (TLS) and redirect HTTP to HTTPS.",
				time.Time{},
			))
		}
		if len(sh.HeadersMissing) > 0 {
			findings = append(findings, newFinding(
				"security", "medium",
				"Missing security headers",
				"Missing: "+strings.Join(sh.HeadersMissing, ", "),
				rep.URL, "", "",
				"Add recommended security headers in your server/reverse-proxy configuration (CSP, X-Frame-Options, etc.).",
				time.Time{},
			))
		}
		for _, c := range sh.CookieFlagsIssues {
			findings = append(findings, newFinding(
				"security", "medium",
				"Cookie flags issue",
				fmt.Sprintf("Cookie '%s' (%s) issues: %s", c.Name, c.Domain, strings.Join(c.Issues, ", ")),
				rep.URL, "", "",
				"Set Secure, HttpOnly, and SameSite appropriately for auth/session cookies.",
				time.Time{},
			))
		}
	}

	if perf := rep.Performance; perf != nil {
		for _, a := range perf.LargeAssets {
			severity := "low"
			if a.SizeBytes > largeAssetMediumBytes {
				severity = "medium"
			}
			findings = append(findings, newFinding(
				"performance", severity,
				"Large asset",
				fmt.Sprintf("%s size=%d bytes type=%s", a.URL, a.SizeBytes, a.Type),
				a.URL, "", "",
				"Compress/optimize images, enable caching, consider lazy loading, and use modern formats (webp/avif).",
				time.Time{},
			))
		}
		for _, s := range perf.SlowEndpoints {
			severity := "low"
			if s.DurationMS > 3000 {
				severity = "medium"
			}
			findings = append(findings, newFinding(
				"performance", severity,
				"Slow endpoint",
				fmt.Sprintf("%s %s took %.0fms (status %d)", s.Method, s.URL, s.DurationMS, s.Status),
				s.URL, "", "",
				"Optimize slow resources/endpoints, add caching/CDN, reduce payload size, and improve server response time.",
				time.Time{},
			))
		}
	}

	for _, v := range rep.AccessibilityViolations {
		findings = append(findings, newFinding(
			"accessibility",
			mapImpactSeverity(v.Impact),
			"A11y violation: "+v.ID,
			fmt.Sprintf("%s (nodes: %d)", v.Description, v.NodesCount),
			orDefault(v.PageURL, rep.URL),
			v.HelpURL,
			"",
			"Fix contrast/labels/landmarks. Use semantic HTML, aria-labels, and check with axe/Lighthouse.",
			time.Time{},
		))
	}

	return findings
}

// mapConsoleSeverity maps backend severities onto the frontend scale.
func mapConsoleSeverity(s models.Severity) string {
	switch s {
	case models.SeverityError:
		return "high"
	case models.SeverityWarning:
		return "medium"
	case models.SeverityInfo:
		return "info"
	default:
		return "low"
	}
}

// mapImpactSeverity maps axe impact levels onto the frontend scale.
func mapImpactSeverity(impact string) string {
	switch strings.ToLower(impact) {
	case "critical", "serious":
		return "high"
	case "moderate":
		return "medium"
	case "":
		return "medium"
	default:
		return "low"
	}
}

func newFinding(category, severity, title, description, affectedURL, evidence, screenshotURL, fix string, ts time.Time) models.FrontendFinding {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return models.FrontendFinding{
		ID:             uuid.New().String(),
		Category:       category,
		Severity:       severity,
		Title:          title,
		Description:    description,
		AffectedURL:    affectedURL,
		Evidence:       evidence,
		ScreenshotURL:  screenshotURL,
		RecommendedFix: fix,
		Timestamp:      ts.UTC().Format(time.RFC3339),
	}
}

// severityCounts tallies findings of one category by severity.
func severityCounts(findings []models.FrontendFinding, category string) map[string]int {
	counts := map[string]int{}
	for _, f := range findings {
		if f.Category == category {
			counts[f.Severity]++
		}
	}
	return counts
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
