// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/config"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/models"
	"github.com/tomtom215/gatecheck/internal/report"
	"github.com/tomtom215/gatecheck/internal/secheaders"
)

// pagePause is the settle delay between audited pages.
const pagePause = 500 * time.Millisecond

// Runner drives one audit from navigation to final report.
type Runner struct {
	store   *Store
	browser *browser.Manager
	checker *secheaders.Checker
	cfg     *config.Config
}

// NewRunner wires the audit engine.
func NewRunner(store *Store, browserMgr *browser.Manager, checker *secheaders.Checker, cfg *config.Config) *Runner {
	return &Runner{
		store:   store,
		browser: browserMgr,
		checker: checker,
		cfg:     cfg,
	}
}

// AuditDir returns the artifact directory for one audit.
func (r *Runner) AuditDir(auditID string) string {
	return filepath.Join(r.cfg.Storage.DataDir, "audits", auditID)
}

// Run executes the audit to completion. Meant to be called on its own
// goroutine; all outcomes are reported through the store.
func (r *Runner) Run(sess *models.Session, auditID string) {
	started := time.Now()
	metrics.AuditsStarted.Inc()

	log := logging.With().
		Str("audit_id", auditID).
		Str("session_id", sess.ID).
		Logger()

	pages, err := r.run(sess, auditID)
	duration := time.Since(started)

	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("audit failed")
		r.store.Fail(auditID, err.Error())
		metrics.RecordAuditOutcome("failed", duration, pages)
		return
	}
	log.Info().Dur("duration", duration).Int("pages", pages).Msg("audit complete")
	metrics.RecordAuditOutcome("complete", duration, pages)
}

func (r *Runner) run(sess *models.Session, auditID string) (pagesVisited int, err error) {
	audit, err := r.store.Get(auditID)
	if err != nil {
		return 0, err
	}
	opts := audit.Options
	targetURL := audit.URL

	auditDir := r.AuditDir(auditID)
	if err := os.MkdirAll(auditDir, 0o750); err != nil {
		return 0, fmt.Errorf("create audit dir: %w", err)
	}

	r.store.SetPhase(auditID, models.PhaseStarting)

	tabKey := browser.AuditTabKey(auditID)
	tab, err := r.browser.NewAuthenticatedTab(sess, tabKey)
	if err != nil {
		return 0, fmt.Errorf("open audit tab: %w", err)
	}
	defer r.browser.CloseTab(tabKey)

	runCtx, cancel := context.WithTimeout(tab.Ctx, r.cfg.Audit.MaxAuditDuration())
	defer cancel()

	col := newCollector()
	col.attach(runCtx)
	if err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error { return network.Enable().Do(ctx) }),
		chromedp.ActionFunc(func(ctx context.Context) error { return page.Enable().Do(ctx) }),
		chromedp.ActionFunc(func(ctx context.Context) error { return cdpruntime.Enable().Do(ctx) }),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.SetLifecycleEventsEnabled(true).Do(ctx)
		}),
	); err != nil {
		return 0, fmt.Errorf("enable telemetry domains: %w", err)
	}

	preview := newPreviewSampler(auditDir)
	r.attachPreviewTriggers(runCtx, preview)
	timeout := r.cfg.Browser.BrowserTimeout()
	loadWait := r.cfg.Browser.PageLoadWait()

	// Availability check against the entry page. A dead or erroring entry
	// still produces a report: the failure becomes the entry's ui-flow
	// record and the audit carries on.
	r.store.SetPhase(auditID, models.PhaseCheckingAvailability)
	col.SetPageURL(targetURL)

	loadStart := time.Now()
	entryNavErr := browser.NavigateDOMContentLoaded(runCtx, targetURL, timeout)
	entryLoadMS := float64(time.Since(loadStart)) / float64(time.Millisecond)
	if entryNavErr == nil {
		time.Sleep(loadWait)
	}
	preview.Sample(runCtx)
	entryStatus := httpStatusFor(col, targetURL)

	visited := map[string]bool{targetURL: true}
	var flows []models.UIFlowResult
	var timings []models.PageTiming
	var pageOrder []string

	maxPages := opts.MaxPages
	if maxPages < 1 {
		maxPages = r.cfg.Audit.MaxPagesDefault
	}
	maxDepth := opts.MaxDepth
	if maxDepth < 1 {
		maxDepth = r.cfg.Audit.MaxDepthDefault
	}

	// Crawl the entry page for same-origin links.
	r.store.SetPhase(auditID, models.PhaseCrawling)
	queue := []crawlPage{{url: targetURL}}
	if entryNavErr == nil {
		links, err := discoverLinks(runCtx, targetURL, visited, timeout)
		if err != nil {
			logging.Ctx(runCtx).Warn().Err(err).Msg("link discovery failed on entry page")
		}
		for _, link := range links {
			visited[link] = true
			queue = append(queue, crawlPage{url: link, depth: 1})
		}
	}
	if len(queue) > maxPages {
		queue = queue[:maxPages]
	}

	// Audit each queued page. The entry page is already loaded, and the
	// queue may still grow as healthy pages contribute new links.
	for i := 0; i < len(queue); i++ {
		pageURL := queue[i].url
		depth := queue[i].depth
		select {
		case <-runCtx.Done():
			return len(pageOrder), fmt.Errorf("audit timed out: %w", runCtx.Err())
		default:
		}

		r.store.SetPageProgress(auditID, i, len(queue))
		col.SetPageURL(pageURL)

		flow := models.UIFlowResult{PageURL: pageURL}
		var notes []string
		var navErr error

		if i == 0 {
			flow.LoadTimeMS = entryLoadMS
			flow.HTTPStatus = entryStatus
			navErr = entryNavErr
		} else {
			loadStart := time.Now()
			navErr = browser.NavigateDOMContentLoaded(runCtx, pageURL, timeout)
			flow.LoadTimeMS = float64(time.Since(loadStart)) / float64(time.Millisecond)
			if navErr == nil {
				time.Sleep(loadWait)
				flow.HTTPStatus = httpStatusFor(col, pageURL)
			}
		}
		timings = append(timings, models.PageTiming{
			URL:                pageURL,
			DomContentLoadedMS: flow.LoadTimeMS,
		})

		if navErr != nil {
			flow.Status = models.FlowError
			flow.Notes = "Navigation failed: " + navErr.Error()
			flows = append(flows, flow)
			pageOrder = append(pageOrder, pageURL)
			consoleCount, networkFailures := col.Counts()
			r.store.SetCounts(auditID, len(pageOrder), consoleCount, networkFailures)
			continue
		}

		text, err := browser.VisibleText(runCtx, timeout)
		if err != nil {
			logging.Ctx(runCtx).Debug().Err(err).Str("url", pageURL).Msg("body text read failed")
		}
		status, issues := classifyContent(flow.HTTPStatus, text)
		if status == models.FlowOK {
			status = availabilityStatus(flow.HTTPStatus)
		}
		flow.Status = status
		notes = append(notes, issues...)

		if opts.ProbeInteractions {
			probe := runProbe(runCtx, pageURL, timeout, func() { preview.Sample(runCtx) })
			notes = append(notes, probe.Note())
		}

		preview.Sample(runCtx)

		if opts.IncludeScreenshots && flow.Status != models.FlowOK {
			if path := r.captureScreenshot(runCtx, auditDir, i); path != "" {
				flow.ScreenshotPath = path
			}
		}

		flow.Notes = strings.Join(notes, " | ")
		flows = append(flows, flow)
		pageOrder = append(pageOrder, pageURL)

		// Widen the frontier from each healthy page while the depth and
		// page budgets allow.
		if flow.Status != models.FlowError && len(queue) < maxPages && depth < maxDepth {
			more, err := discoverLinks(runCtx, pageURL, visited, timeout)
			if err == nil {
				for _, link := range more {
					if len(queue) >= maxPages {
						break
					}
					visited[link] = true
					queue = append(queue, crawlPage{url: link, depth: depth + 1})
				}
			}
		}

		consoleCount, networkFailures := col.Counts()
		r.store.SetCounts(auditID, len(pageOrder), consoleCount, networkFailures)

		if i < len(queue)-1 {
			time.Sleep(pagePause)
		}
	}

	// Passive security checks over the authenticated cookie jar.
	r.store.SetPhase(auditID, models.PhaseSecurityCheck)
	cookies := r.currentCookies(runCtx)
	hygiene := r.checker.Check(runCtx, targetURL, cookies)

	var violations []models.AccessibilityViolation
	if opts.RunAccessibility {
		r.store.SetPhase(auditID, models.PhaseAccessibilityCheck)
		if err := browser.NavigateDOMContentLoaded(runCtx, targetURL, timeout); err == nil {
			time.Sleep(loadWait)
			v, err := runAccessibilityChecks(runCtx, targetURL)
			if err != nil {
				logging.Ctx(runCtx).Warn().Err(err).Msg("accessibility checks failed")
			} else {
				violations = v
			}
		}
	}

	rep := report.Build(report.Evidence{
		AuditID:         auditID,
		SessionID:       sess.ID,
		URL:             targetURL,
		PagesVisited:    pageOrder,
		ConsoleEntries:  col.ConsoleEntries(),
		NetworkFailures: col.NetworkFailures(),
		UIFlows:         flows,
		PageTimings:     timings,
		SecurityHygiene: hygiene,
		Performance:     col.Performance(),
		Accessibility:   violations,
		StartedAt:       audit.StartedAt,
		FinishedAt:      time.Now(),
	})
	r.store.Complete(auditID, rep)
	return len(pageOrder), nil
}

// crawlPage is one frontier entry: a URL and its link distance from the
// entry page.
type crawlPage struct {
	url   string
	depth int
}

// attachPreviewTriggers samples a preview frame on main-frame navigations
// and load events. Captures run off the event goroutine; the sampler's
// throttle absorbs bursts.
func (r *Runner) attachPreviewTriggers(runCtx context.Context, preview *previewSampler) {
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame != nil && e.Frame.ParentID == "" {
				go preview.Sample(runCtx)
			}
		case *page.EventLoadEventFired:
			go preview.Sample(runCtx)
		}
	})
}

// captureScreenshot saves a numbered PNG for a problem page, returning the
// file name or "" on failure.
func (r *Runner) captureScreenshot(runCtx context.Context, auditDir string, index int) string {
	buf, err := browser.CapturePNG(runCtx, r.cfg.Browser.BrowserTimeout())
	if err != nil {
		logging.Ctx(runCtx).Debug().Err(err).Msg("screenshot capture failed")
		return ""
	}
	name := fmt.Sprintf("screenshot_%d.png", index)
	if err := os.WriteFile(filepath.Join(auditDir, name), buf, 0o600); err != nil {
		logging.Ctx(runCtx).Debug().Err(err).Msg("screenshot write failed")
		return ""
	}
	return name
}

// currentCookies reads the tab's live cookie jar so the hygiene check sees
// any cookies refreshed during the crawl.
func (r *Runner) currentCookies(runCtx context.Context) []models.StorageCookie {
	var out []models.StorageCookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, models.StorageCookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: string(c.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		logging.Ctx(runCtx).Warn().Err(err).Msg("cookie read failed")
	}
	return out
}

// httpStatusFor reads the main-document response status the collector saw
// for a URL. A page whose document response was never observed is treated
// as 200.
func httpStatusFor(col *collector, pageURL string) int {
	if status, ok := col.DocumentStatus(pageURL); ok {
		return status
	}
	return 200
}
