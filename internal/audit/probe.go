// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/goccy/go-json"

	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/validation"
)

// Probe limits.
const (
	maxProbeCandidates = 60
	maxProbeClicks     = 3
	probeTextLimit     = 80

	probeDCLWait     = 2500 * time.Millisecond
	probeNetworkIdle = 3 * time.Second
)

// unsafeActionPattern matches control text that might mutate state or money.
// Anything matching is never clicked.
var unsafeActionPattern = regexp.MustCompile(`(?i)delete|remove|destroy|pay|purchase|buy|checkout|confirm order|place order|transfer|withdraw|send money|unsubscribe|cancel account|deactivate|log ?out|sign ?out`)

// probeCandidate is one clickable control found on a page.
type probeCandidate struct {
	Kind     string `json:"kind"`
	Text     string `json:"text"`
	Href     string `json:"href"`
	InForm   bool   `json:"inForm"`
	TypeAttr string `json:"typeAttr"`
}

// collectCandidatesJS gathers visible interactive controls. Text is clipped
// in the page so huge labels never cross the wire.
const collectCandidatesJS = `(() => {
	const isVisible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0) return false;
		const style = window.getComputedStyle(el);
		return style.visibility !== 'hidden' && style.display !== 'none';
	};
	const out = [];
	const push = (kind, el, href) => {
		out.push({
			kind: kind,
			text: (el.innerText || el.value || '').trim().slice(0, 80),
			href: href || '',
			inForm: !!el.closest('form'),
			typeAttr: (el.getAttribute('type') || '').toLowerCase(),
		});
	};
	for (const el of document.querySelectorAll('button, [role="button"]')) {
		if (isVisible(el)) push('button', el, '');
	}
	for (const el of document.querySelectorAll('a[href]')) {
		if (isVisible(el)) push('link', el, el.getAttribute('href') || '');
	}
	for (const el of document.querySelectorAll('input[type="button"], input[type="submit"], input[type="reset"]')) {
		if (isVisible(el)) push('input', el, '');
	}
	return out;
})()`

// filterCandidates applies the safety rules: no destructive verbs, nothing
// inside a form, no submit/reset inputs, no protocol links, no cross-domain
// navigation. Duplicates (same kind, text, and href) collapse to one entry
// and the result is capped.
func filterCandidates(baseURL string, candidates []probeCandidate) []probeCandidate {
	seen := make(map[string]bool)
	var out []probeCandidate
	for _, cand := range candidates {
		if len(out) >= maxProbeCandidates {
			break
		}
		key := cand.Kind + "|" + cand.Text + "|" + cand.Href
		if seen[key] {
			continue
		}
		seen[key] = true

		if unsafeActionPattern.MatchString(cand.Text) {
			continue
		}
		if cand.InForm {
			continue
		}
		if cand.TypeAttr == "submit" || cand.TypeAttr == "reset" {
			continue
		}
		if cand.Href != "" {
			lower := strings.ToLower(cand.Href)
			if strings.HasPrefix(lower, "mailto:") ||
				strings.HasPrefix(lower, "tel:") ||
				strings.HasPrefix(lower, "javascript:") {
				continue
			}
			if !validation.SameHost(baseURL, cand.Href) {
				continue
			}
		}
		out = append(out, cand)
	}
	return out
}

// probeResult summarizes one page's interaction probe.
type probeResult struct {
	Clicks       int
	Navigations  int
	SlowOrLoader int
}

// Note renders the probe summary for the ui-flow record. Navigation and
// slow/loader segments appear only when non-zero.
func (r probeResult) Note() string {
	note := fmt.Sprintf("UI probe: %d clicks", r.Clicks)
	if r.Navigations > 0 {
		note += fmt.Sprintf(" | %d nav", r.Navigations)
	}
	if r.SlowOrLoader > 0 {
		note += fmt.Sprintf(" | %d slow/loader", r.SlowOrLoader)
	}
	return note
}

// runProbe clicks up to maxProbeClicks safe controls on the current page,
// watching what each click causes. Navigations are undone; the tab ends up
// back on startURL. onInteraction fires after each click settles.
func runProbe(tabCtx context.Context, startURL string, timeout time.Duration, onInteraction func()) probeResult {
	var result probeResult

	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var raw []probeCandidate
	if err := chromedp.Run(opCtx, chromedp.Evaluate(collectCandidatesJS, &raw)); err != nil {
		logging.Warn().Err(err).Str("page", startURL).Msg("probe candidate collection failed")
		return result
	}

	candidates := filterCandidates(startURL, raw)
	for _, cand := range candidates {
		if result.Clicks >= maxProbeClicks {
			break
		}
		if err := clickCandidate(opCtx, cand); err != nil {
			continue
		}
		result.Clicks++

		settled := waitForSettle(opCtx)
		if !settled {
			result.SlowOrLoader++
		}
		if onInteraction != nil {
			onInteraction()
		}

		loc, err := browser.CurrentURL(opCtx, 5*time.Second)
		if err == nil && validation.NormalizeURL(loc) != validation.NormalizeURL(startURL) {
			result.Navigations++
			backCtx, backCancel := context.WithTimeout(opCtx, 10*time.Second)
			_ = chromedp.Run(backCtx, chromedp.NavigateBack())
			backCancel()
		}
	}

	// Whatever happened above, finish where we started.
	if loc, err := browser.CurrentURL(opCtx, 5*time.Second); err == nil &&
		validation.NormalizeURL(loc) != validation.NormalizeURL(startURL) {
		if err := browser.NavigateDOMContentLoaded(opCtx, startURL, 15*time.Second); err != nil {
			logging.Warn().Err(err).Str("page", startURL).Msg("probe could not return to start URL")
		}
	}

	return result
}

// clickCandidate re-locates the control by kind, text, and href, then
// clicks it in the page.
func clickCandidate(tabCtx context.Context, cand probeCandidate) error {
	payload, err := json.Marshal(cand)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
	const want = %s;
	const matches = (el, href) => {
		const text = (el.innerText || el.value || '').trim().slice(0, %d);
		return text === want.text && (href || '') === want.href;
	};
	let selector;
	switch (want.kind) {
	case 'button': selector = 'button, [role="button"]'; break;
	case 'link': selector = 'a[href]'; break;
	default: selector = 'input[type="button"]';
	}
	for (const el of document.querySelectorAll(selector)) {
		const href = want.kind === 'link' ? (el.getAttribute('href') || '') : '';
		if (matches(el, href)) {
			el.click();
			return true;
		}
	}
	return false;
})()`, string(payload), probeTextLimit)

	clickCtx, cancel := context.WithTimeout(tabCtx, 5*time.Second)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(clickCtx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("control no longer present")
	}
	return nil
}

// waitForSettle waits for DOMContentLoaded and then for network idle. The
// return value reflects network idle alone: false means requests were still
// in flight when the wait expired, which usually means a spinner is going.
func waitForSettle(tabCtx context.Context) bool {
	waitForLifecycle(tabCtx, "DOMContentLoaded", probeDCLWait)
	return waitForLifecycle(tabCtx, "networkIdle", probeNetworkIdle)
}

// waitForLifecycle blocks until the named lifecycle event fires or the
// timeout elapses.
func waitForLifecycle(tabCtx context.Context, name string, timeout time.Duration) bool {
	waitCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	fired := make(chan struct{}, 1)
	chromedp.ListenTarget(waitCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == name {
			select {
			case fired <- struct{}{}:
			default:
			}
		}
	})

	select {
	case <-fired:
		return true
	case <-waitCtx.Done():
		return false
	}
}
