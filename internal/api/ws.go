// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second

	// wsUpdateBuffer absorbs progress bursts; when the client cannot keep
	// up, intermediate frames are dropped in favor of newer ones.
	wsUpdateBuffer = 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin access is governed by the CORS allowlist on the rest of
	// the API; the websocket accepts the same browsers.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleAuditWS streams progress frames for one audit until it reaches a
// terminal state or the client disconnects.
func (s *Server) handleAuditWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "auditID")
	current, err := s.store.Get(id)
	if err != nil {
		writeNotFound(w, r, "Audit not found")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	log := logging.Ctx(r.Context()).With().Str("audit_id", id).Logger()

	updates := make(chan models.Audit, wsUpdateBuffer)
	unsubscribe := s.store.Subscribe(id, func(snap models.Audit) {
		select {
		case updates <- snap:
		default:
		}
	})
	defer unsubscribe()

	// Reader goroutine: its only job is to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(a models.Audit) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(auditToStatus(&a))
	}

	if err := send(*current); err != nil {
		return
	}
	if isTerminal(current.Status) {
		return
	}

	pings := time.NewTicker(wsPingInterval)
	defer pings.Stop()

	for {
		select {
		case snap := <-updates:
			if err := send(snap); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}
			if isTerminal(snap.Status) {
				return
			}
		case <-pings.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func isTerminal(status models.AuditStatus) bool {
	return status == models.AuditComplete || status == models.AuditFailed
}
