// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package validation

import (
	"errors"
	"testing"
)

func TestValidateTargetURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		allowPrivate bool
		wantErr      error
	}{
		{"https ok", "https://app.example.com/login", false, nil},
		{"http ok", "http://app.example.com", false, nil},
		{"trailing space trimmed", "  https://app.example.com  ", false, nil},
		{"ftp rejected", "ftp://example.com", false, ErrURLScheme},
		{"no scheme", "example.com", false, ErrURLScheme},
		{"javascript scheme", "javascript:alert(1)", false, ErrURLScheme},
		{"missing host", "https://", false, ErrURLHost},
		{"path traversal", "https://example.com/../../etc/passwd", false, ErrURLTraversal},
		{"localhost blocked", "http://localhost:3000", false, ErrURLPrivateIP},
		{"loopback blocked", "http://127.0.0.1:8080", false, ErrURLPrivateIP},
		{"rfc1918 blocked", "http://192.168.1.10", false, ErrURLPrivateIP},
		{"rfc1918 10 blocked", "http://10.0.0.5", false, ErrURLPrivateIP},
		{"link local blocked", "http://169.254.169.254", false, ErrURLPrivateIP},
		{"unspecified blocked", "http://0.0.0.0", false, ErrURLPrivateIP},
		{"private allowed when opted in", "http://localhost:3000", true, nil},
		{"rfc1918 allowed when opted in", "http://10.0.0.5", true, nil},
		{"public ip ok", "http://93.184.216.34", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetURL(tt.url, tt.allowPrivate)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateTargetURL(%q) = %v, want nil", tt.url, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateTargetURL(%q) = %v, want %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/a?q=1#frag", "https://example.com/a"},
		{"https://example.com/a", "https://example.com/a"},
		{"https://example.com", "https://example.com"},
		{"https://example.com:8443/x/y?z=1", "https://example.com:8443/x/y"},
		{"not a url at all", "not a url at all"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/a?q=1",
		"http://example.com",
		"https://example.com:8443/x/y#top",
	}
	for _, in := range inputs {
		once := NormalizeURL(in)
		twice := NormalizeURL(once)
		if once != twice {
			t.Errorf("NormalizeURL not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		base      string
		candidate string
		want      bool
	}{
		{"https://example.com", "https://example.com/about", true},
		{"https://example.com", "https://EXAMPLE.com/about", true},
		{"https://example.com", "/relative/path", true},
		{"https://example.com", "https://other.com/x", false},
		{"https://example.com", "https://sub.example.com/x", false},
	}
	for _, tt := range tests {
		if got := SameHost(tt.base, tt.candidate); got != tt.want {
			t.Errorf("SameHost(%q, %q) = %v, want %v", tt.base, tt.candidate, got, tt.want)
		}
	}
}

func TestValidateStructAuditOptions(t *testing.T) {
	type options struct {
		MaxPages int `validate:"min=1,max=50"`
	}

	if err := ValidateStruct(&options{MaxPages: 10}); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
	if err := ValidateStruct(&options{MaxPages: 0}); err == nil {
		t.Error("expected error for max_pages=0")
	}
	if err := ValidateStruct(&options{MaxPages: 51}); err == nil {
		t.Error("expected error for max_pages=51")
	}
}
