// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"fmt"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/tomtom215/gatecheck/internal/models"
)

// axe-core parameters.
const (
	axeScriptURL     = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.8.3/axe.min.js"
	maxAxeViolations = 20
	axeRunTimeout    = 45 * time.Second
)

// injectAxeJS loads axe-core from the CDN via a script tag and resolves
// once it is available.
const injectAxeJS = `new Promise((resolve, reject) => {
	if (window.axe) { resolve(true); return; }
	const s = document.createElement('script');
	s.src = '%s';
	s.onload = () => resolve(true);
	s.onerror = () => reject(new Error('axe load failed'));
	document.head.appendChild(s);
	setTimeout(() => reject(new Error('axe load timeout')), 15000);
})`

// runAxeJS runs the audit and flattens violations to the fields we keep.
const runAxeJS = `axe.run(document).then(r => r.violations.map(v => ({
	id: v.id,
	impact: v.impact || '',
	description: v.description || '',
	helpUrl: v.helpUrl || '',
	nodes: (v.nodes || []).length,
})))`

// axeViolation is the wire shape coming back from the page.
type axeViolation struct {
	ID          string `json:"id"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
	HelpURL     string `json:"helpUrl"`
	Nodes       int    `json:"nodes"`
}

// runAccessibilityChecks injects axe-core into the current page and runs
// it. An unreachable CDN or script failure yields an error the caller
// treats as non-fatal.
func runAccessibilityChecks(tabCtx context.Context, pageURL string) ([]models.AccessibilityViolation, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, axeRunTimeout)
	defer cancel()

	inject := fmt.Sprintf(injectAxeJS, axeScriptURL)
	var loaded bool
	if err := chromedp.Run(opCtx, chromedp.Evaluate(inject, &loaded,
		func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		})); err != nil {
		return nil, fmt.Errorf("axe injection: %w", err)
	}

	var raw []axeViolation
	if err := chromedp.Run(opCtx, chromedp.Evaluate(runAxeJS, &raw,
		func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true)
		})); err != nil {
		return nil, fmt.Errorf("axe run: %w", err)
	}

	if len(raw) > maxAxeViolations {
		raw = raw[:maxAxeViolations]
	}

	violations := make([]models.AccessibilityViolation, 0, len(raw))
	for _, v := range raw {
		impact := v.Impact
		if impact == "" {
			impact = "moderate"
		}
		violations = append(violations, models.AccessibilityViolation{
			ID:          v.ID,
			Impact:      impact,
			Description: v.Description,
			HelpURL:     v.HelpURL,
			NodesCount:  v.Nodes,
			PageURL:     pageURL,
		})
	}
	return violations, nil
}
