// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/gatecheck/internal/browser"
	"github.com/tomtom215/gatecheck/internal/logging"
)

// Preview capture parameters.
const (
	previewFileName = "preview_latest.jpg"
	previewQuality  = 60
)

// previewSampler writes throttled viewport screenshots so the UI can show
// what the audit browser is doing. At most one frame per second is taken;
// excess requests are simply dropped.
type previewSampler struct {
	dir     string
	limiter *rate.Limiter
}

// newPreviewSampler creates a sampler writing under dir.
func newPreviewSampler(dir string) *previewSampler {
	return &previewSampler{
		dir:     dir,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// PreviewPath returns the preview file location for an audit directory.
func PreviewPath(auditDir string) string {
	return filepath.Join(auditDir, previewFileName)
}

// Sample captures one frame if the throttle allows it. Failures are logged
// and swallowed; a missing preview frame never fails an audit.
func (p *previewSampler) Sample(tabCtx context.Context) {
	if !p.limiter.Allow() {
		return
	}

	buf, err := browser.CaptureJPEG(tabCtx, previewQuality, 10*time.Second)
	if err != nil {
		logging.Debug().Err(err).Msg("preview capture failed")
		return
	}

	// Write-then-rename so readers never see a torn frame.
	tmp := filepath.Join(p.dir, previewFileName+".tmp")
	final := PreviewPath(p.dir)
	if err := os.WriteFile(tmp, buf, 0o640); err != nil {
		logging.Debug().Err(err).Msg("preview write failed")
		return
	}
	if err := os.Rename(tmp, final); err != nil {
		logging.Debug().Err(err).Msg("preview rename failed")
	}
}
