// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package models

import "time"

// Recommendation is one fixed-template remediation item, carrying up to
// five of the URLs it applies to.
type Recommendation struct {
	Category     string   `json:"category"`
	Message      string   `json:"message"`
	AffectedURLs []string `json:"affected_urls"`
}

// CategoryScore is one scored report category.
type CategoryScore struct {
	Category    string `json:"category"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"max_score"`
	IssuesCount int    `json:"issues_count"`
}

// AuditReport is the complete result of a finished audit.
type AuditReport struct {
	AuditID   string `json:"audit_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`

	Score           int              `json:"score"`
	Grade           string           `json:"grade"`
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`

	CategoryScores []CategoryScore `json:"category_scores"`

	PagesVisited            []string                 `json:"pages_visited"`
	ConsoleErrors           []ConsoleEntry           `json:"console_errors"`
	NetworkFailures         []NetworkFailure         `json:"network_failures"`
	UIFlows                 []UIFlowResult           `json:"ui_flows"`
	PageTimings             []PageTiming             `json:"page_timings"`
	SecurityHygiene         *SecurityHygiene         `json:"security_hygiene,omitempty"`
	Performance             *Performance             `json:"performance,omitempty"`
	AccessibilityViolations []AccessibilityViolation `json:"accessibility_violations"`

	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// FrontendCategoryScore is the category breakdown shape the web UI consumes.
type FrontendCategoryScore struct {
	Category      string `json:"category"`
	Score         int    `json:"score"`
	Weight        int    `json:"weight"`
	FindingsCount int    `json:"findings_count"`
	CriticalCount int    `json:"critical_count"`
	HighCount     int    `json:"high_count"`
	MediumCount   int    `json:"medium_count"`
	LowCount      int    `json:"low_count"`
}

// FrontendFinding is one flattened finding for the web UI.
type FrontendFinding struct {
	ID             string `json:"id"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	AffectedURL    string `json:"affected_url"`
	Evidence       string `json:"evidence,omitempty"`
	ScreenshotURL  string `json:"screenshot_url,omitempty"`
	RecommendedFix string `json:"recommended_fix"`
	Timestamp      string `json:"timestamp"`
}

// FrontendReport is the report shape the web UI consumes.
type FrontendReport struct {
	AuditID         string                  `json:"audit_id"`
	SessionID       string                  `json:"session_id"`
	TargetURL       string                  `json:"target_url"`
	OverallScore    int                     `json:"overall_score"`
	Grade           string                  `json:"grade"`
	CategoryScores  []FrontendCategoryScore `json:"category_scores"`
	Findings        []FrontendFinding       `json:"findings"`
	PagesCrawled    []string                `json:"pages_crawled"`
	StartedAt       string                  `json:"started_at"`
	CompletedAt     string                  `json:"completed_at"`
	DurationSeconds float64                 `json:"duration_seconds"`
}
