// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package evidence

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gatecheck/internal/models"
)

func sampleReport() *models.AuditReport {
	return &models.AuditReport{
		AuditID:    "a-zip",
		SessionID:  "s-zip",
		URL:        "https://app.example.com",
		Score:      92,
		Grade:      "A",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}
}

func TestWriteArchiveWithArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"screenshot_1.png", "preview_latest.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("imagedata"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	// Non-image files stay out of the archive.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteArchive(&buf, sampleReport(), dir); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"report.json", "screenshot_1.png", "preview_latest.jpg"} {
		if !names[want] {
			t.Errorf("archive missing %s, has %v", want, names)
		}
	}
	if names["notes.txt"] {
		t.Error("non-image file should not be archived")
	}
}

func TestWriteArchiveReportContent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, sampleReport(), filepath.Join(t.TempDir(), "missing")); err != nil {
		t.Fatalf("WriteArchive with missing dir: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != 1 || zr.File[0].Name != "report.json" {
		t.Fatalf("archive files = %v, want just report.json", zr.File)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()

	var decoded models.AuditReport
	if err := json.NewDecoder(rc).Decode(&decoded); err != nil {
		t.Fatalf("decode report.json: %v", err)
	}
	if decoded.AuditID != "a-zip" || decoded.Score != 92 {
		t.Errorf("decoded report = %+v", decoded)
	}
}
