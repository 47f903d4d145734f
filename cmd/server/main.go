// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package main is the entry point for the gatecheck server.
//
// Gatecheck audits authenticated web applications for production readiness.
// A human logs into the target through a managed browser tab; gatecheck then
// crawls the authenticated app within its origin, capturing console errors,
// failing network calls, broken pages, security hygiene problems, and
// accessibility violations, and scores the result.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered defaults, YAML file, environment
//  2. Logging: zerolog, JSON or console format
//  3. Session manager: login sessions with TTL and storage-state capture
//  4. Browser manager: shared Chrome allocator, one tab per session/audit
//  5. Audit engine: store plus runner
//  6. HTTP API and maintenance services under a suture supervisor tree
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP server
// drains, the supervisor stops its children, and Chrome is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tomtom215/gatecheck/internal/api"
	"github.com/tomtom215/gatecheck/internal/audit"
	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/config"
	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/models"
	"github.com/tomtom215/gatecheck/internal/secheaders"
	"github.com/tomtom215/gatecheck/internal/session"
	"github.com/tomtom215/gatecheck/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatecheck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("app", cfg.App.Name).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Bool("headless", cfg.Browser.HeadlessEffective()).
		Msg("starting gatecheck")

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	sessions := session.NewManager(cfg.Storage.DataDir, cfg.Session.SessionTTL(), cfg.Session.MaxConcurrent)
	browserMgr := browser.NewManager(cfg.Browser)
	defer browserMgr.Shutdown()

	// Reaped sessions take their login tab with them.
	sessions.SetRemoveHook(func(sessionID string) {
		browserMgr.CloseTab(browser.SessionTabKey(sessionID))
		metrics.SessionsExpired.Inc()
	})

	store := audit.NewStore()
	runner := audit.NewRunner(store, browserMgr, secheaders.NewChecker(), cfg)
	server := api.NewServer(cfg, sessions, browserMgr, store, runner)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(&supervisor.HTTPService{
		Server:          server.HTTPServer(),
		ShutdownTimeout: cfg.Server.Timeout,
	})
	tree.AddMaintenanceService(&supervisor.SessionSweeper{Sessions: sessions})
	tree.AddMaintenanceService(&supervisor.ArtifactJanitor{
		Dir:       filepath.Join(cfg.Storage.DataDir, "audits"),
		Retention: cfg.Storage.ArtifactRetention(),
		InUse: func(auditID string) bool {
			a, err := store.Get(auditID)
			return err == nil && (a.Status == models.AuditPending || a.Status == models.AuditRunning)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = <-tree.ServeBackground(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("gatecheck stopped")
	return nil
}
