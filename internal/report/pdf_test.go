// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderPDFStructure(t *testing.T) {
	rep := Build(testEvidence())
	pdf := RenderPDF(rep)

	if !bytes.HasPrefix(pdf, []byte("%PDF-1.4\n")) {
		t.Error("missing PDF header")
	}
	if !bytes.Contains(pdf, []byte("%%EOF")) {
		t.Error("missing EOF marker")
	}
	if !bytes.Contains(pdf, []byte("/Type /Catalog")) || !bytes.Contains(pdf, []byte("/Type /Pages")) {
		t.Error("missing catalog or pages objects")
	}
	if !bytes.Contains(pdf, []byte("Grade B")) {
		t.Error("report score line not rendered")
	}
	if !bytes.Contains(pdf, []byte("Recommendations")) {
		t.Error("recommendations section not rendered")
	}
	if !bytes.Contains(pdf, []byte("Affected:")) {
		t.Error("affected URLs not rendered")
	}
}

func TestRenderPDFCleanReportSkipsRecommendations(t *testing.T) {
	ev := testEvidence()
	ev.ConsoleEntries = nil
	ev.NetworkFailures = nil
	ev.UIFlows = nil
	ev.SecurityHygiene.HeadersMissing = nil
	pdf := RenderPDF(Build(ev))

	if bytes.Contains(pdf, []byte("Recommendations")) {
		t.Error("clean report rendered an empty recommendations section")
	}
}

func TestEscapePDFText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a(b)c", `a\(b\)c`},
		{`back\slash`, `back\\slash`},
		{"café", "caf?"},
	}
	for _, tt := range tests {
		if got := escapePDFText(tt.in); got != tt.want {
			t.Errorf("escapePDFText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	short := wrapText("fits on one line", 40)
	if len(short) != 1 {
		t.Errorf("short text wrapped into %d lines", len(short))
	}

	long := wrapText(strings.Repeat("word ", 50), 40)
	if len(long) < 2 {
		t.Errorf("long text wrapped into %d lines, want several", len(long))
	}
	for _, line := range long {
		if len(line) > 40 {
			t.Errorf("line %q exceeds width", line)
		}
	}

	huge := wrapText(strings.Repeat("x", 100), 40)
	if len(huge) < 3 {
		t.Errorf("unbroken word wrapped into %d lines, want hard splits", len(huge))
	}
}
