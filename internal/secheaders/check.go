// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package secheaders performs the passive security hygiene checks: HTTPS
// use, recommended response headers, and cookie flag weaknesses.
package secheaders

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
)

// RecommendedHeaders lists the response headers a production site should
// send, with a short rationale each.
var RecommendedHeaders = map[string]string{
	"Strict-Transport-Security": "HSTS - Enforces HTTPS connections",
	"Content-Security-Policy":   "CSP - Prevents XSS and injection attacks",
	"X-Content-Type-Options":    "Prevents MIME type sniffing",
	"X-Frame-Options":           "Prevents clickjacking",
	"Referrer-Policy":           "Controls referrer information",
	"Permissions-Policy":        "Controls browser features",
}

// probeTimeout bounds the header probe request.
const probeTimeout = 10 * time.Second

// Checker probes a target for recommended security headers.
type Checker struct {
	client *http.Client
}

// NewChecker builds a checker. Certificate verification is disabled: the
// audit should still report on sites with self-signed staging certs.
func NewChecker() *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: probeTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}
}

// NewCheckerWithClient builds a checker around a caller-supplied client.
// Tests use this to point at a local server.
func NewCheckerWithClient(client *http.Client) *Checker {
	return &Checker{client: client}
}

// CheckHeaders sends one HEAD request and reports which recommended headers
// are present. When the probe itself fails every header counts as missing.
func (c *Checker) CheckHeaders(ctx context.Context, url string) (present, missing []string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, allHeaderNames()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("security header probe failed")
		return nil, allHeaderNames()
	}
	defer func() { _ = resp.Body.Close() }()

	for _, name := range allHeaderNames() {
		if resp.Header.Get(name) != "" {
			present = append(present, name)
		} else {
			missing = append(missing, name)
		}
	}
	return present, missing
}

// allHeaderNames returns the tracked header names in stable order.
func allHeaderNames() []string {
	return []string{
		"Strict-Transport-Security",
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"Referrer-Policy",
		"Permissions-Policy",
	}
}

// AnalyzeCookieFlags flags weak cookie settings: missing Secure, missing
// HttpOnly, and SameSite unset or None.
func AnalyzeCookieFlags(cookies []models.StorageCookie) []models.CookieIssue {
	var issues []models.CookieIssue
	for _, c := range cookies {
		var problems []string
		if !c.Secure {
			problems = append(problems, "missing Secure flag")
		}
		if !c.HTTPOnly {
			problems = append(problems, "missing HttpOnly flag")
		}
		switch strings.ToLower(c.SameSite) {
		case "":
			problems = append(problems, "SameSite not set")
		case "none":
			problems = append(problems, "SameSite=None")
		}
		if len(problems) > 0 {
			issues = append(issues, models.CookieIssue{
				Name:   c.Name,
				Domain: c.Domain,
				Issues: problems,
			})
		}
	}
	return issues
}

// Check runs the full hygiene pass for a target.
func (c *Checker) Check(ctx context.Context, url string, cookies []models.StorageCookie) *models.SecurityHygiene {
	present, missing := c.CheckHeaders(ctx, url)
	if present == nil {
		present = []string{}
	}
	if missing == nil {
		missing = []string{}
	}
	issues := AnalyzeCookieFlags(cookies)
	if issues == nil {
		issues = []models.CookieIssue{}
	}
	return &models.SecurityHygiene{
		HTTPSOk:           strings.HasPrefix(strings.ToLower(url), "https://"),
		HeadersPresent:    present,
		HeadersMissing:    missing,
		CookieFlagsIssues: issues,
	}
}
