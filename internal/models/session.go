// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package models holds the shared domain types: login sessions, audit state,
// captured findings, and the final report.
package models

import "time"

// Session is an interactive login session against a target site. The user
// completes the login flow in a real browser tab; the captured storage state
// is what later authenticated audits run with.
type Session struct {
	ID              string    `json:"session_id"`
	TargetURL       string    `json:"target_url"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	Authenticated   bool      `json:"is_authenticated"`
	StorageStateDir string    `json:"-"`
}

// IsExpired reports whether the session TTL has elapsed.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// TimeRemainingMinutes returns whole minutes until expiry, floored at zero.
func (s *Session) TimeRemainingMinutes(now time.Time) int {
	remaining := s.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Minutes())
}

// StorageState is the persisted browser state of an authenticated session:
// cookies plus per-origin localStorage.
type StorageState struct {
	Cookies []StorageCookie `json:"cookies"`
	Origins []OriginState   `json:"origins"`
}

// StorageCookie is one captured cookie.
type StorageCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// OriginState carries the localStorage entries of one origin.
type OriginState struct {
	Origin       string             `json:"origin"`
	LocalStorage []LocalStorageItem `json:"localStorage"`
}

// LocalStorageItem is one localStorage key/value pair.
type LocalStorageItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
