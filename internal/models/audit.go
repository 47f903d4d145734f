// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package models

import "time"

// AuditStatus is the lifecycle state of an audit.
type AuditStatus string

const (
	AuditPending  AuditStatus = "pending"
	AuditRunning  AuditStatus = "running"
	AuditComplete AuditStatus = "complete"
	AuditFailed   AuditStatus = "failed"
)

// AuditPhase names the currently executing stage. Each phase maps to a fixed
// progress percentage so pollers see monotonic progress.
type AuditPhase string

const (
	PhaseStarting             AuditPhase = "starting"
	PhaseCheckingAvailability AuditPhase = "checking_availability"
	PhaseCrawling             AuditPhase = "crawling"
	PhaseAuditingPages        AuditPhase = "auditing_pages"
	PhaseSecurityCheck        AuditPhase = "security_check"
	PhaseAccessibilityCheck   AuditPhase = "accessibility_check"
	PhaseComplete             AuditPhase = "complete"
)

// AuditOptions are the caller-supplied knobs for one audit run.
type AuditOptions struct {
	MaxPages           int  `json:"max_pages" validate:"min=1,max=100"`
	MaxDepth           int  `json:"max_depth" validate:"min=1,max=5"`
	EnableFormSubmit   bool `json:"enable_form_submit"`
	IncludeScreenshots bool `json:"include_screenshots"`
	ProbeInteractions  bool `json:"probe_interactions"`
	RunAccessibility   bool `json:"run_accessibility"`
}

// Audit is the mutable state of one audit run. The store guards all access
// with its own mutex; handlers only ever see copies.
type Audit struct {
	ID        string       `json:"audit_id"`
	SessionID string       `json:"session_id"`
	URL       string       `json:"url"`
	Status    AuditStatus  `json:"status"`
	Progress  int          `json:"progress"`
	Phase     AuditPhase   `json:"phase"`
	Options   AuditOptions `json:"options"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   time.Time    `json:"ended_at"`

	PagesVisited    int `json:"pages_visited"`
	ConsoleErrors   int `json:"console_errors"`
	NetworkFailures int `json:"network_failures"`
}

// Severity classifies a captured console entry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ConsoleEntry is a captured console message or uncaught exception.
type ConsoleEntry struct {
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
	Stack     string    `json:"stack,omitempty"`
	PageURL   string    `json:"page_url"`
	Timestamp time.Time `json:"timestamp"`
}

// NetworkFailure is a request that errored or returned a 4xx/5xx status.
type NetworkFailure struct {
	URL          string  `json:"url"`
	Method       string  `json:"method"`
	Status       int     `json:"status,omitempty"`
	Error        string  `json:"error,omitempty"`
	ResourceType string  `json:"resource_type,omitempty"`
	DurationMS   float64 `json:"duration_ms,omitempty"`
	PageURL      string  `json:"page_url"`
}

// UIFlowStatus grades a visited page.
type UIFlowStatus string

const (
	FlowOK      UIFlowStatus = "ok"
	FlowWarning UIFlowStatus = "warning"
	FlowError   UIFlowStatus = "error"
)

// UIFlowResult records the outcome of visiting and probing one page.
type UIFlowResult struct {
	PageURL        string       `json:"page_url"`
	Status         UIFlowStatus `json:"status"`
	HTTPStatus     int          `json:"http_status,omitempty"`
	LoadTimeMS     float64      `json:"load_time_ms"`
	Notes          string       `json:"notes,omitempty"`
	ScreenshotPath string       `json:"screenshot_path,omitempty"`
}

// PageTiming records load milestones for one visited page. Only the
// DOMContentLoaded delta is measured; the other fields stay optional.
type PageTiming struct {
	URL                string  `json:"url"`
	TTFBMS             float64 `json:"ttfb_ms,omitempty"`
	DomContentLoadedMS float64 `json:"dom_content_loaded_ms,omitempty"`
	LoadMS             float64 `json:"load_ms,omitempty"`
}

// SlowEndpoint is a response that exceeded the slow threshold.
type SlowEndpoint struct {
	URL        string  `json:"url"`
	Method     string  `json:"method"`
	Status     int     `json:"status"`
	DurationMS float64 `json:"duration_ms"`
}

// LargeAsset is a downloaded resource whose Content-Length crossed the
// size threshold.
type LargeAsset struct {
	URL       string `json:"url"`
	SizeBytes int64  `json:"size_bytes"`
	Type      string `json:"type,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
}

// Performance aggregates timing and size observations.
type Performance struct {
	SlowEndpoints []SlowEndpoint `json:"slow_endpoints"`
	LargeAssets   []LargeAsset   `json:"large_assets"`
}

// CookieIssue flags weak flags on one cookie.
type CookieIssue struct {
	Name   string   `json:"name"`
	Domain string   `json:"domain"`
	Issues []string `json:"issues"`
}

// SecurityHygiene is the outcome of the passive security checks.
type SecurityHygiene struct {
	HTTPSOk           bool          `json:"https_ok"`
	HeadersPresent    []string      `json:"headers_present"`
	HeadersMissing    []string      `json:"headers_missing"`
	CookieFlagsIssues []CookieIssue `json:"cookie_flags_issues"`
}

// AccessibilityViolation is one axe-core rule violation.
type AccessibilityViolation struct {
	ID          string `json:"id"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
	HelpURL     string `json:"help_url,omitempty"`
	NodesCount  int    `json:"nodes_count"`
	PageURL     string `json:"page_url"`
}
