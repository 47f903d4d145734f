// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package supervisor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/session"
)

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	svc := &HTTPService{
		Server: &http.Server{
			Addr:              addr,
			Handler:           http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
			ReadHeaderTimeout: time.Second,
		},
		ShutdownTimeout: time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Wait for the listener, then cancel and expect a clean exit.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop after cancellation")
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Same address is already taken, ListenAndServe must fail.
	svc := &HTTPService{
		Server: &http.Server{Addr: ln.Addr().String(), ReadHeaderTimeout: time.Second},
	}
	err = svc.Serve(context.Background())
	if err == nil || errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve on occupied port = %v, want bind error", err)
	}
}

func TestSessionSweeperReapsExpired(t *testing.T) {
	mgr := session.NewManager(t.TempDir(), time.Millisecond, 5)
	if _, err := mgr.Create("https://app.example.com"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	sweeper := &SessionSweeper{Sessions: mgr, Interval: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := sweeper.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v", err)
	}
	if n := mgr.ActiveCount(); n != 0 {
		t.Errorf("active sessions after sweep = %d, want 0", n)
	}
}

func TestArtifactJanitorPrune(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "aud-old")
	fresh := filepath.Join(dir, "aud-fresh")
	running := filepath.Join(dir, "aud-running")
	for _, d := range []string{old, fresh, running} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().Add(-2 * time.Hour)
	for _, d := range []string{old, running} {
		if err := os.Chtimes(d, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	janitor := &ArtifactJanitor{
		Dir:       dir,
		Retention: time.Hour,
		InUse:     func(id string) bool { return id == "aud-running" },
	}
	if n := janitor.prune(); n != 1 {
		t.Errorf("prune removed %d dirs, want 1", n)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired artifact dir still present")
	}
	for _, d := range []string{fresh, running} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("%s should survive the prune: %v", filepath.Base(d), err)
		}
	}
}

func TestArtifactJanitorMissingDir(t *testing.T) {
	janitor := &ArtifactJanitor{Dir: filepath.Join(t.TempDir(), "absent"), Retention: time.Hour}
	if n := janitor.prune(); n != 0 {
		t.Errorf("prune on missing dir removed %d, want 0", n)
	}
}

func TestTreeRunsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	ran := make(chan struct{})
	tree.AddMaintenanceService(serviceFunc(func(ctx context.Context) error {
		close(ran)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("service never started")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
}

type serviceFunc func(ctx context.Context) error

func (f serviceFunc) Serve(ctx context.Context) error { return f(ctx) }
