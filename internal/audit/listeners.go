// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/tomtom215/gatecheck/internal/models"
)

// Telemetry thresholds, both strict.
const (
	slowEndpointMS  = 1000
	largeAssetBytes = 500_000
)

// inflightRequest tracks a request between will-be-sent and its terminal
// event.
type inflightRequest struct {
	url          string
	method       string
	resourceType string
	start        time.Time
	status       int
	durationMS   float64
}

// collector accumulates browser telemetry for one audit. CDP events arrive
// on the tab's event goroutine while the runner reads counts from its own,
// so everything is guarded by the mutex.
type collector struct {
	mu sync.Mutex

	pageURL string

	consoleEntries  []models.ConsoleEntry
	networkFailures []models.NetworkFailure
	slowEndpoints   []models.SlowEndpoint
	largeAssets     []models.LargeAsset

	docStatus map[string]int
	inflight  map[network.RequestID]*inflightRequest
}

func newCollector() *collector {
	return &collector{
		docStatus: make(map[string]int),
		inflight:  make(map[network.RequestID]*inflightRequest),
	}
}

// SetPageURL records which page subsequent events belong to.
func (c *collector) SetPageURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageURL = url
}

// attach wires the collector to a tab. Listeners must be attached before
// the first navigation so early events are not lost.
func (c *collector) attach(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			c.onConsoleAPI(e)
		case *runtime.EventExceptionThrown:
			c.onException(e)
		case *network.EventRequestWillBeSent:
			c.onRequestWillBeSent(e)
		case *network.EventResponseReceived:
			c.onResponseReceived(e)
		case *network.EventLoadingFinished:
			c.onLoadingFinished(e)
		case *network.EventLoadingFailed:
			c.onLoadingFailed(e)
		}
	})
}

// onConsoleAPI records console.error and console.warn calls.
func (c *collector) onConsoleAPI(e *runtime.EventConsoleAPICalled) {
	var severity models.Severity
	switch e.Type {
	case runtime.APITypeError:
		severity = models.SeverityError
	case runtime.APITypeWarning:
		severity = models.SeverityWarning
	default:
		return
	}

	parts := make([]string, 0, len(e.Args))
	for _, arg := range e.Args {
		parts = append(parts, remoteObjectText(arg))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.consoleEntries = append(c.consoleEntries, models.ConsoleEntry{
		Severity:  severity,
		Message:   strings.Join(parts, " "),
		PageURL:   c.pageURL,
		Timestamp: time.Now(),
	})
}

// onException records uncaught exceptions as error-severity console entries.
func (c *collector) onException(e *runtime.EventExceptionThrown) {
	details := e.ExceptionDetails
	if details == nil {
		return
	}
	message := details.Text
	if details.Exception != nil && details.Exception.Description != "" {
		message = details.Exception.Description
	}
	location := ""
	if details.URL != "" {
		location = details.URL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.consoleEntries = append(c.consoleEntries, models.ConsoleEntry{
		Severity:  models.SeverityError,
		Message:   message,
		Location:  location,
		Stack:     stackTraceText(details.StackTrace),
		PageURL:   c.pageURL,
		Timestamp: time.Now(),
	})
}

func (c *collector) onRequestWillBeSent(e *network.EventRequestWillBeSent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[e.RequestID] = &inflightRequest{
		url:          e.Request.URL,
		method:       e.Request.Method,
		resourceType: string(e.Type),
		start:        time.Now(),
	}
}

func (c *collector) onResponseReceived(e *network.EventResponseReceived) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.inflight[e.RequestID]
	if !ok {
		req = &inflightRequest{
			url:          e.Response.URL,
			method:       "GET",
			resourceType: string(e.Type),
			start:        time.Now(),
		}
		c.inflight[e.RequestID] = req
	}
	req.status = int(e.Response.Status)
	req.durationMS = float64(time.Since(req.start)) / float64(time.Millisecond)

	if e.Type == network.ResourceTypeDocument {
		c.docStatus[req.url] = req.status
	}

	if req.status >= 400 {
		c.networkFailures = append(c.networkFailures, models.NetworkFailure{
			URL:          req.url,
			Method:       req.method,
			Status:       req.status,
			ResourceType: req.resourceType,
			DurationMS:   req.durationMS,
			PageURL:      c.pageURL,
		})
	}
	if req.durationMS > slowEndpointMS {
		c.slowEndpoints = append(c.slowEndpoints, models.SlowEndpoint{
			URL:        req.url,
			Method:     req.method,
			Status:     req.status,
			DurationMS: req.durationMS,
		})
	}
	if size := contentLength(e.Response.Headers); size > largeAssetBytes {
		c.largeAssets = append(c.largeAssets, models.LargeAsset{
			URL:       req.url,
			SizeBytes: size,
			Type:      e.Response.MimeType,
			PageURL:   c.pageURL,
		})
	}
}

func (c *collector) onLoadingFinished(e *network.EventLoadingFinished) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, e.RequestID)
}

func (c *collector) onLoadingFailed(e *network.EventLoadingFailed) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.inflight[e.RequestID]
	if !ok {
		return
	}
	delete(c.inflight, e.RequestID)

	// Canceled requests are routine during navigation, not failures.
	if e.Canceled || e.ErrorText == "net::ERR_ABORTED" {
		return
	}

	c.networkFailures = append(c.networkFailures, models.NetworkFailure{
		URL:          req.url,
		Method:       req.method,
		Error:        e.ErrorText,
		ResourceType: req.resourceType,
		PageURL:      c.pageURL,
	})
}

// Counts returns (console entries, network failures) for partial findings.
// The console count covers the full captured list, warnings included, to
// match what the final report scores.
func (c *collector) Counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.consoleEntries), len(c.networkFailures)
}

// DocumentStatus returns the recorded main-document HTTP status for a URL.
func (c *collector) DocumentStatus(url string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.docStatus[url]
	return status, ok
}

// ConsoleEntries returns a copy of all captured console entries.
func (c *collector) ConsoleEntries() []models.ConsoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ConsoleEntry(nil), c.consoleEntries...)
}

// NetworkFailures returns a copy of all captured failures.
func (c *collector) NetworkFailures() []models.NetworkFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.NetworkFailure(nil), c.networkFailures...)
}

// Performance assembles slow endpoints and large assets, assets sorted
// biggest first.
func (c *collector) Performance() *models.Performance {
	c.mu.Lock()
	defer c.mu.Unlock()

	assets := append([]models.LargeAsset(nil), c.largeAssets...)
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].SizeBytes > assets[j].SizeBytes
	})

	return &models.Performance{
		SlowEndpoints: append([]models.SlowEndpoint(nil), c.slowEndpoints...),
		LargeAssets:   assets,
	}
}

// contentLength parses the Content-Length response header, tolerating
// header-name casing. Returns 0 when absent or unparsable.
func contentLength(headers network.Headers) int64 {
	for name, value := range headers {
		if !strings.EqualFold(name, "Content-Length") {
			continue
		}
		switch v := value.(type) {
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		case float64:
			return int64(v)
		}
	}
	return 0
}

// remoteObjectText renders a console argument as text.
func remoteObjectText(obj *runtime.RemoteObject) string {
	if obj == nil {
		return ""
	}
	if obj.Value != nil {
		return strings.Trim(string(obj.Value), `"`)
	}
	if obj.Description != "" {
		return obj.Description
	}
	return string(obj.Type)
}

// stackTraceText renders the top frames of a stack trace.
func stackTraceText(st *runtime.StackTrace) string {
	if st == nil || len(st.CallFrames) == 0 {
		return ""
	}
	frames := st.CallFrames
	if len(frames) > 5 {
		frames = frames[:5]
	}
	parts := make([]string, 0, len(frames))
	for _, f := range frames {
		name := f.FunctionName
		if name == "" {
			name = "<anonymous>"
		}
		parts = append(parts, name+" ("+f.URL+")")
	}
	return strings.Join(parts, " <- ")
}
