// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tomtom215/gatecheck/internal/models"
)

// PDF page geometry, points. A4 with one-inch margins.
const (
	pdfPageWidth   = 595
	pdfPageHeight  = 842
	pdfMargin      = 72
	pdfLineHeight  = 14
	pdfBodySize    = 10
	pdfTitleSize   = 18
	pdfHeadingSize = 13
	pdfMaxChars    = 92
)

// RenderPDF renders the report as a simple text-only PDF. The output is a
// valid single-font document; no external renderer is involved.
func RenderPDF(rep *models.AuditReport) []byte {
	var w pdfWriter
	w.title(fmt.Sprintf("Production Readiness Audit: %s", rep.URL))
	w.line("")
	w.line(fmt.Sprintf("Score: %d/100 (Grade %s)", rep.Score, rep.Grade))
	w.line(fmt.Sprintf("Audited: %s", rep.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	w.line(fmt.Sprintf("Duration: %.1fs over %d pages", rep.DurationSeconds, len(rep.PagesVisited)))
	w.line("")
	w.wrapped(rep.Summary)

	w.heading("Category Scores")
	for _, cs := range rep.CategoryScores {
		w.line(fmt.Sprintf("  %-16s %3d/%d  (%d issues)", cs.Category, cs.Score, cs.MaxScore, cs.IssuesCount))
	}

	if len(rep.Recommendations) > 0 {
		w.heading("Recommendations")
		for i, rec := range rep.Recommendations {
			w.wrapped(fmt.Sprintf("%d. %s", i+1, rec.Message))
			if len(rec.AffectedURLs) > 0 {
				w.wrapped("   Affected: " + strings.Join(rec.AffectedURLs, ", "))
			}
		}
	}

	if len(rep.ConsoleErrors) > 0 {
		w.heading(fmt.Sprintf("Console Errors (%d)", len(rep.ConsoleErrors)))
		for _, e := range rep.ConsoleErrors {
			w.wrapped(fmt.Sprintf("[%s] %s", e.Severity, e.Message))
		}
	}

	if len(rep.NetworkFailures) > 0 {
		w.heading(fmt.Sprintf("Network Failures (%d)", len(rep.NetworkFailures)))
		for _, n := range rep.NetworkFailures {
			detail := n.Error
			if n.Status > 0 {
				detail = fmt.Sprintf("HTTP %d", n.Status)
			}
			w.wrapped(fmt.Sprintf("%s %s (%s)", n.Method, n.URL, detail))
		}
	}

	if len(rep.UIFlows) > 0 {
		w.heading(fmt.Sprintf("Pages Visited (%d)", len(rep.UIFlows)))
		for _, u := range rep.UIFlows {
			line := fmt.Sprintf("[%s] %s (%.0fms)", u.Status, u.PageURL, u.LoadTimeMS)
			if u.Notes != "" {
				line += " - " + u.Notes
			}
			w.wrapped(line)
		}
	}

	if sh := rep.SecurityHygiene; sh != nil {
		w.heading("Security Hygiene")
		https := "yes"
		if !sh.HTTPSOk {
			https = "NO"
		}
		w.line("  HTTPS: " + https)
		if len(sh.HeadersMissing) > 0 {
			w.wrapped("  Missing headers: " + strings.Join(sh.HeadersMissing, ", "))
		}
		for _, c := range sh.CookieFlagsIssues {
			w.wrapped(fmt.Sprintf("  Cookie %s: %s", c.Name, strings.Join(c.Issues, ", ")))
		}
	}

	if len(rep.AccessibilityViolations) > 0 {
		w.heading(fmt.Sprintf("Accessibility Violations (%d)", len(rep.AccessibilityViolations)))
		for _, v := range rep.AccessibilityViolations {
			w.wrapped(fmt.Sprintf("[%s] %s: %s (%d nodes)", v.Impact, v.ID, v.Description, v.NodesCount))
		}
	}

	return w.document()
}

// pdfLine is one positioned text run.
type pdfLine struct {
	text string
	size int
}

// pdfWriter accumulates lines and serializes them page by page.
type pdfWriter struct {
	lines []pdfLine
}

func (w *pdfWriter) title(s string) { w.lines = append(w.lines, pdfLine{s, pdfTitleSize}) }

func (w *pdfWriter) line(s string) { w.lines = append(w.lines, pdfLine{s, pdfBodySize}) }

func (w *pdfWriter) heading(s string) {
	w.lines = append(w.lines, pdfLine{"", pdfBodySize}, pdfLine{s, pdfHeadingSize})
}

// wrapped splits long text across lines at word boundaries.
func (w *pdfWriter) wrapped(s string) {
	for _, part := range wrapText(s, pdfMaxChars) {
		w.line(part)
	}
}

func wrapText(s string, width int) []string {
	if len(s) <= width {
		return []string{s}
	}
	var out []string
	words := strings.Fields(s)
	var cur strings.Builder
	for _, word := range words {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		// Hard-split words longer than the line.
		for len(word) > width {
			out = append(out, word[:width])
			word = word[width:]
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}

// document serializes the accumulated lines into PDF bytes.
func (w *pdfWriter) document() []byte {
	linesPerPage := (pdfPageHeight - 2*pdfMargin) / pdfLineHeight
	var pages [][]pdfLine
	for start := 0; start < len(w.lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(w.lines) {
			end = len(w.lines)
		}
		pages = append(pages, w.lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]pdfLine{{}}
	}

	// Object numbering: 1 catalog, 2 pages, 3 font, then per page
	// 2 objects (page, content stream).
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}

	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, page := range pages {
		contentRef := 5 + i*2
		writeObj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>",
			pdfPageWidth, pdfPageHeight, contentRef))

		var content bytes.Buffer
		content.WriteString("BT\n")
		y := pdfPageHeight - pdfMargin
		for _, ln := range page {
			if ln.text != "" {
				fmt.Fprintf(&content, "/F1 %d Tf\n1 0 0 1 %d %d Tm\n(%s) Tj\n",
					ln.size, pdfMargin, y, escapePDFText(ln.text))
			}
			y -= pdfLineHeight
		}
		content.WriteString("ET")
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)
	return buf.Bytes()
}

// escapePDFText escapes the PDF string delimiters and strips non-Latin-1
// bytes the base font cannot show.
func escapePDFText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			if r >= 32 && r < 127 {
				b.WriteRune(r)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}
