// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/tomtom215/gatecheck/internal/validation"
)

// discoverLinksJS collects candidate hrefs from the current document.
// Protocol links (javascript:, mailto:) are excluded in the page to keep
// the returned set small.
const discoverLinksJS = `(() => {
	const hrefs = [];
	for (const a of document.querySelectorAll('a[href]')) {
		const href = a.getAttribute('href') || '';
		if (!href) continue;
		const lower = href.toLowerCase();
		if (lower.startsWith('javascript:') || lower.startsWith('mailto:') || lower.startsWith('tel:')) continue;
		hrefs.push(a.href);
	}
	return hrefs;
})()`

// discoverLinks extracts same-origin links from the page, normalized to
// scheme://host/path and deduplicated against the visited set.
func discoverLinks(tabCtx context.Context, baseURL string, visited map[string]bool, timeout time.Duration) ([]string, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var hrefs []string
	if err := chromedp.Run(opCtx, chromedp.Evaluate(discoverLinksJS, &hrefs)); err != nil {
		return nil, fmt.Errorf("link discovery: %w", err)
	}

	return filterLinks(baseURL, hrefs, visited), nil
}

// filterLinks keeps same-host candidates, normalizes them, and drops
// everything already visited or already picked.
func filterLinks(baseURL string, hrefs []string, visited map[string]bool) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, href := range hrefs {
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		if u.Host != "" && !validation.SameHost(base.String(), href) {
			continue
		}
		resolved := base.ResolveReference(u)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		normalized := resolved.Scheme + "://" + resolved.Host + resolved.Path
		if visited[normalized] || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
