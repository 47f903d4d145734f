// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"fmt"
	"testing"
)

func TestFilterCandidatesSafetyRules(t *testing.T) {
	base := "https://app.example.com/"

	tests := []struct {
		name string
		cand probeCandidate
		keep bool
	}{
		{"plain button", probeCandidate{Kind: "button", Text: "Open menu"}, true},
		{"safe link", probeCandidate{Kind: "link", Text: "Settings", Href: "/settings"}, true},
		{"delete button", probeCandidate{Kind: "button", Text: "Delete account"}, false},
		{"logout", probeCandidate{Kind: "button", Text: "Log out"}, false},
		{"logout no space", probeCandidate{Kind: "button", Text: "Logout"}, false},
		{"sign out", probeCandidate{Kind: "link", Text: "Sign out", Href: "/signout"}, false},
		{"checkout", probeCandidate{Kind: "button", Text: "Proceed to checkout"}, false},
		{"unsubscribe", probeCandidate{Kind: "link", Text: "Unsubscribe", Href: "/u"}, false},
		{"case insensitive", probeCandidate{Kind: "button", Text: "DELETE ALL"}, false},
		{"inside form", probeCandidate{Kind: "button", Text: "Search", InForm: true}, false},
		{"submit input", probeCandidate{Kind: "input", Text: "Go", TypeAttr: "submit"}, false},
		{"reset input", probeCandidate{Kind: "input", Text: "Clear", TypeAttr: "reset"}, false},
		{"button input", probeCandidate{Kind: "input", Text: "Toggle", TypeAttr: "button"}, true},
		{"mailto link", probeCandidate{Kind: "link", Text: "Email us", Href: "mailto:x@example.com"}, false},
		{"tel link", probeCandidate{Kind: "link", Text: "Call", Href: "tel:+123"}, false},
		{"javascript link", probeCandidate{Kind: "link", Text: "Do", Href: "javascript:void(0)"}, false},
		{"cross-domain link", probeCandidate{Kind: "link", Text: "Docs", Href: "https://docs.other.com/"}, false},
		{"same-host absolute", probeCandidate{Kind: "link", Text: "Home", Href: "https://app.example.com/home"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterCandidates(base, []probeCandidate{tt.cand})
			if kept := len(got) == 1; kept != tt.keep {
				t.Errorf("keep = %v, want %v", kept, tt.keep)
			}
		})
	}
}

func TestFilterCandidatesDedupe(t *testing.T) {
	base := "https://app.example.com/"
	cands := []probeCandidate{
		{Kind: "button", Text: "Open"},
		{Kind: "button", Text: "Open"},
		{Kind: "link", Text: "Open", Href: "/open"},
	}
	got := filterCandidates(base, cands)
	if len(got) != 2 {
		t.Errorf("got %d candidates, want 2 (same kind+text+href collapse)", len(got))
	}
}

func TestFilterCandidatesCap(t *testing.T) {
	base := "https://app.example.com/"
	var cands []probeCandidate
	for i := 0; i < 100; i++ {
		cands = append(cands, probeCandidate{Kind: "button", Text: fmt.Sprintf("Button %d", i)})
	}
	got := filterCandidates(base, cands)
	if len(got) != maxProbeCandidates {
		t.Errorf("got %d candidates, want cap of %d", len(got), maxProbeCandidates)
	}
}

func TestProbeResultNote(t *testing.T) {
	tests := []struct {
		name string
		r    probeResult
		want string
	}{
		{"clicks only", probeResult{Clicks: 2}, "UI probe: 2 clicks"},
		{"with navigations", probeResult{Clicks: 3, Navigations: 1}, "UI probe: 3 clicks | 1 nav"},
		{"with slow", probeResult{Clicks: 1, SlowOrLoader: 2}, "UI probe: 1 clicks | 2 slow/loader"},
		{"all segments", probeResult{Clicks: 3, Navigations: 1, SlowOrLoader: 2}, "UI probe: 3 clicks | 1 nav | 2 slow/loader"},
		{"zero clicks", probeResult{}, "UI probe: 0 clicks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Note(); got != tt.want {
				t.Errorf("Note() = %q, want %q", got, tt.want)
			}
		})
	}
}
