// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package browser owns the embedded Chrome instance. One exec allocator is
// shared by the whole process; each login session and each audit gets its
// own tab (chromedp context) keyed by owner ID.
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/tomtom215/gatecheck/internal/config"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/models"
)

// ErrTabNotFound is returned when an operation addresses an unknown tab.
var ErrTabNotFound = fmt.Errorf("browser tab not found")

// Tab is one Chrome tab with its own chromedp context.
type Tab struct {
	Key    string
	Ctx    context.Context
	cancel context.CancelFunc
}

// Manager starts Chrome lazily on first use and tracks open tabs.
type Manager struct {
	mu   sync.Mutex
	cfg  config.BrowserConfig
	tabs map[string]*Tab

	allocCtx    context.Context
	allocCancel context.CancelFunc
	started     bool
}

// NewManager creates a browser manager. Chrome is not launched until the
// first tab is requested.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{
		cfg:  cfg,
		tabs: make(map[string]*Tab),
	}
}

// ensureAllocatorLocked lazily builds the exec allocator. Caller holds mu.
func (m *Manager) ensureAllocatorLocked() {
	if m.started {
		return
	}

	// DefaultExecAllocatorOptions force headless; the login flow needs a
	// visible window when the platform allows one, so the flag is set
	// explicitly either way.
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", m.cfg.HeadlessEffective()),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.IgnoreCertErrors,
		chromedp.UserAgent(m.cfg.UserAgent),
	)

	m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	m.started = true

	logging.Info().
		Bool("headless", m.cfg.HeadlessEffective()).
		Int("viewport_width", m.cfg.ViewportWidth).
		Int("viewport_height", m.cfg.ViewportHeight).
		Msg("browser allocator initialized")
}

// OpenTab creates a new tab under the given key. An existing tab with the
// same key is closed first.
func (m *Manager) OpenTab(key string) (*Tab, error) {
	m.mu.Lock()
	m.ensureAllocatorLocked()
	if old, ok := m.tabs[key]; ok {
		old.cancel()
		delete(m.tabs, key)
	}
	tabCtx, cancel := chromedp.NewContext(m.allocCtx)
	tab := &Tab{Key: key, Ctx: tabCtx, cancel: cancel}
	m.tabs[key] = tab
	count := len(m.tabs)
	m.mu.Unlock()

	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(
			int64(m.cfg.ViewportWidth),
			int64(m.cfg.ViewportHeight),
			1.0,
			false,
		).Do(ctx)
	})); err != nil {
		m.CloseTab(key)
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	metrics.BrowserTabsOpen.Set(float64(count))
	return tab, nil
}

// Tab returns the open tab for key.
func (m *Manager) Tab(key string) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tab, ok := m.tabs[key]
	if !ok {
		return nil, ErrTabNotFound
	}
	return tab, nil
}

// CloseTab closes the tab for key. Closing an unknown key is a no-op.
func (m *Manager) CloseTab(key string) {
	m.mu.Lock()
	tab, ok := m.tabs[key]
	if ok {
		delete(m.tabs, key)
	}
	count := len(m.tabs)
	m.mu.Unlock()

	if ok {
		tab.cancel()
		metrics.BrowserTabsOpen.Set(float64(count))
		logging.Debug().Str("tab", key).Msg("browser tab closed")
	}
}

// Shutdown closes all tabs and the browser itself.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	tabs := m.tabs
	m.tabs = make(map[string]*Tab)
	cancel := m.allocCancel
	m.allocCancel = nil
	m.started = false
	m.mu.Unlock()

	for _, tab := range tabs {
		tab.cancel()
	}
	if cancel != nil {
		cancel()
	}
	metrics.BrowserTabsOpen.Set(0)
	logging.Info().Msg("browser shut down")
}

// SessionTabKey names the login tab of a session.
func SessionTabKey(sessionID string) string {
	return "session:" + sessionID
}

// AuditTabKey names the working tab of an audit.
func AuditTabKey(auditID string) string {
	return "audit:" + auditID
}

// OpenLoginTab opens a tab on the session's target URL for interactive
// login. A navigation failure is logged but not fatal: the user still gets
// a usable tab and may correct the URL by hand.
func (m *Manager) OpenLoginTab(s *models.Session) error {
	tab, err := m.OpenTab(SessionTabKey(s.ID))
	if err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(tab.Ctx, m.cfg.BrowserTimeout())
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(s.TargetURL)); err != nil {
		logging.Warn().
			Err(err).
			Str("session_id", s.ID).
			Str("target_url", s.TargetURL).
			Msg("login page navigation failed; tab stays open")
	}
	return nil
}
