// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package session manages login sessions: creation against a concurrency
// cap, TTL expiry with lazy reaping on read, and a background sweeper.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/metrics"
	"github.com/tomtom215/gatecheck/internal/models"
)

// Manager errors.
var (
	ErrNotFound         = fmt.Errorf("session not found or expired")
	ErrTooManySessions  = fmt.Errorf("maximum concurrent sessions reached")
	ErrNotAuthenticated = fmt.Errorf("session not authenticated")
)

// Manager owns the in-memory session table and the per-session state
// directories under dataDir/sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.Session

	dataDir       string
	ttl           time.Duration
	maxConcurrent int

	// now is injectable for expiry tests.
	now func() time.Time

	// onRemove is called outside state mutation for each reaped or deleted
	// session, letting the browser layer close the matching tab.
	onRemove func(sessionID string)
}

// NewManager creates a session manager rooted at dataDir.
func NewManager(dataDir string, ttl time.Duration, maxConcurrent int) *Manager {
	return &Manager{
		sessions:      make(map[string]*models.Session),
		dataDir:       dataDir,
		ttl:           ttl,
		maxConcurrent: maxConcurrent,
		now:           time.Now,
	}
}

// SetRemoveHook registers a callback invoked whenever a session is removed.
func (m *Manager) SetRemoveHook(hook func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = hook
}

// Create registers a new session for targetURL and prepares its state
// directory. Fails with ErrTooManySessions at the concurrency cap; expired
// sessions are reaped first so they never count against it.
func (m *Manager) Create(targetURL string) (*models.Session, error) {
	m.mu.Lock()
	removed := m.reapExpiredLocked()

	if len(m.sessions) >= m.maxConcurrent {
		m.mu.Unlock()
		m.notifyRemoved(removed)
		return nil, ErrTooManySessions
	}

	now := m.now()
	s := &models.Session{
		ID:            uuid.New().String(),
		TargetURL:     targetURL,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.ttl),
		Authenticated: false,
	}
	s.StorageStateDir = filepath.Join(m.dataDir, "sessions", s.ID)
	m.sessions[s.ID] = s
	count := len(m.sessions)
	snapshot := *s
	m.mu.Unlock()
	m.notifyRemoved(removed)

	if err := os.MkdirAll(snapshot.StorageStateDir, 0o750); err != nil {
		m.Delete(snapshot.ID)
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	metrics.SessionsCreated.Inc()
	metrics.SessionsActive.Set(float64(count))
	logging.Info().
		Str("session_id", snapshot.ID).
		Str("target_url", snapshot.TargetURL).
		Time("expires_at", snapshot.ExpiresAt).
		Msg("session created")

	return &snapshot, nil
}

// Get returns a copy of the session, reaping it first if its TTL elapsed.
func (m *Manager) Get(id string) (*models.Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if s.IsExpired(m.now()) {
		m.removeLocked(id)
		m.mu.Unlock()
		m.notifyRemoved([]string{id})
		metrics.SessionsExpired.Inc()
		return nil, ErrNotFound
	}
	snapshot := *s
	m.mu.Unlock()
	return &snapshot, nil
}

// MarkAuthenticated flags the session as logged in after storage state
// capture. Expired sessions cannot be authenticated.
func (m *Manager) MarkAuthenticated(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.IsExpired(m.now()) {
		return ErrNotFound
	}
	s.Authenticated = true
	return nil
}

// Delete removes a session and its on-disk state. Removing an unknown
// session is not an error.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		m.removeLocked(id)
	}
	count := len(m.sessions)
	m.mu.Unlock()
	if ok {
		m.notifyRemoved([]string{id})
		metrics.SessionsActive.Set(float64(count))
		logging.Info().Str("session_id", id).Msg("session deleted")
	}
}

// ActiveCount returns the number of unexpired sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	removed := m.reapExpiredLocked()
	count := len(m.sessions)
	m.mu.Unlock()
	m.notifyRemoved(removed)
	return count
}

// Sweep reaps all expired sessions. The background sweeper calls this every
// minute; it is also safe to call directly.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	removed := m.reapExpiredLocked()
	count := len(m.sessions)
	m.mu.Unlock()
	m.notifyRemoved(removed)

	if len(removed) > 0 {
		metrics.SessionsExpired.Add(float64(len(removed)))
		metrics.SessionsActive.Set(float64(count))
		logging.Info().Int("reaped", len(removed)).Msg("expired sessions swept")
	}
	return len(removed)
}

// reapExpiredLocked removes every expired session. Caller holds mu.
func (m *Manager) reapExpiredLocked() []string {
	now := m.now()
	var removed []string
	for id, s := range m.sessions {
		if s.IsExpired(now) {
			m.removeLocked(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// removeLocked deletes the table entry and the state directory. Caller
// holds mu.
func (m *Manager) removeLocked(id string) {
	s := m.sessions[id]
	delete(m.sessions, id)
	if s != nil && s.StorageStateDir != "" {
		if err := os.RemoveAll(s.StorageStateDir); err != nil {
			logging.Warn().Err(err).Str("session_id", id).Msg("failed to remove session dir")
		}
	}
}

// notifyRemoved fires the removal hook outside the manager lock.
func (m *Manager) notifyRemoved(ids []string) {
	if len(ids) == 0 {
		return
	}
	m.mu.Lock()
	hook := m.onRemove
	m.mu.Unlock()
	if hook == nil {
		return
	}
	for _, id := range ids {
		hook(id)
	}
}
