// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package browser

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// epochTime converts CDP's float seconds-since-epoch to a time.Time.
func epochTime(seconds float64) time.Time {
	sec, frac := math.Modf(seconds)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// NavigateDOMContentLoaded navigates the tab and blocks until the
// DOMContentLoaded event fires or the timeout elapses. The listener is
// attached before navigation so a fast event cannot be missed.
func NavigateDOMContentLoaded(tabCtx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	fired := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(navCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventDomContentEventFired); ok {
			select {
			case fired <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(navCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, errorText, _, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("navigation failed: %s", errorText)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-fired:
		return nil
	case <-navCtx.Done():
		return fmt.Errorf("waiting for DOMContentLoaded on %s: %w", url, navCtx.Err())
	}
}

// CaptureJPEG takes a viewport screenshot as JPEG with the given quality.
func CaptureJPEG(tabCtx context.Context, quality int64, timeout time.Duration) ([]byte, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(quality).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// CapturePNG takes a lossless viewport screenshot for evidence artifacts.
func CapturePNG(tabCtx context.Context, timeout time.Duration) ([]byte, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var buf []byte
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// CurrentURL returns the tab's current location.
func CurrentURL(tabCtx context.Context, timeout time.Duration) (string, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var loc string
	if err := chromedp.Run(opCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// VisibleText returns the trimmed inner text of the document body.
func VisibleText(tabCtx context.Context, timeout time.Duration) (string, error) {
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var text string
	err := chromedp.Run(opCtx, chromedp.Evaluate(
		`(document.body && document.body.innerText || "").trim()`, &text))
	if err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	return text, nil
}
