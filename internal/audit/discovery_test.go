// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"reflect"
	"testing"
)

func TestFilterLinksSameHost(t *testing.T) {
	base := "https://app.example.com/dashboard"
	hrefs := []string{
		"https://app.example.com/settings",
		"https://other.example.com/phish",
		"https://app.example.com/profile?tab=1",
	}
	got := filterLinks(base, hrefs, map[string]bool{})
	want := []string{
		"https://app.example.com/settings",
		"https://app.example.com/profile",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterLinksRelativeResolution(t *testing.T) {
	base := "https://app.example.com/section/page"
	hrefs := []string{
		"/absolute",
		"sibling",
		"../parent",
	}
	got := filterLinks(base, hrefs, map[string]bool{})
	want := []string{
		"https://app.example.com/absolute",
		"https://app.example.com/section/sibling",
		"https://app.example.com/parent",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterLinksDedupe(t *testing.T) {
	base := "https://app.example.com/"
	hrefs := []string{
		"https://app.example.com/settings",
		"https://app.example.com/settings?from=nav",
		"https://app.example.com/settings#section",
	}
	got := filterLinks(base, hrefs, map[string]bool{})
	if len(got) != 1 || got[0] != "https://app.example.com/settings" {
		t.Errorf("got %v, want single normalized settings link", got)
	}
}

func TestFilterLinksVisitedExcluded(t *testing.T) {
	base := "https://app.example.com/"
	visited := map[string]bool{"https://app.example.com/settings": true}
	got := filterLinks(base, []string{"https://app.example.com/settings", "https://app.example.com/new"}, visited)
	if len(got) != 1 || got[0] != "https://app.example.com/new" {
		t.Errorf("got %v, want only the unvisited link", got)
	}
}

func TestFilterLinksSchemes(t *testing.T) {
	base := "https://app.example.com/"
	hrefs := []string{
		"ftp://app.example.com/file",
		"http://app.example.com/insecure",
	}
	got := filterLinks(base, hrefs, map[string]bool{})
	if len(got) != 1 || got[0] != "http://app.example.com/insecure" {
		t.Errorf("got %v, want only the http link", got)
	}
}

func TestFilterLinksBadBase(t *testing.T) {
	if got := filterLinks("://not a url", []string{"https://a.example/x"}, nil); got != nil {
		t.Errorf("got %v, want nil for unparsable base", got)
	}
}
