// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package evidence bundles an audit's artifacts into a downloadable archive.
package evidence

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/gatecheck/internal/logging"
	"github.com/tomtom215/gatecheck/internal/models"
)

// WriteArchive streams a zip with the report JSON and every image artifact
// from the audit directory (screenshots and the latest preview frame).
func WriteArchive(w io.Writer, rep *models.AuditReport, auditDir string) error {
	zw := zip.NewWriter(w)

	reportJSON, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := addBytes(zw, "report.json", reportJSON, rep.FinishedAt); err != nil {
		return err
	}

	entries, err := os.ReadDir(auditDir)
	if err != nil {
		// A report can exist with no artifacts when screenshots were off.
		if !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("dir", auditDir).Msg("evidence dir unreadable")
		}
		return zw.Close()
	}

	for _, entry := range entries {
		if entry.IsDir() || !isImageArtifact(entry.Name()) {
			continue
		}
		if err := addFile(zw, auditDir, entry.Name()); err != nil {
			logging.Warn().Err(err).Str("file", entry.Name()).Msg("skipping evidence file")
		}
	}

	return zw.Close()
}

func isImageArtifact(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func addBytes(zw *zip.Writer, name string, data []byte, modified time.Time) error {
	if modified.IsZero() {
		modified = time.Now()
	}
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	_, err = f.Write(data)
	return err
}

func addFile(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	// Images are already compressed; store them as-is.
	f, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: info.ModTime(),
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(f, src)
	return err
}
