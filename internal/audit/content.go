// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package audit

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/gatecheck/internal/models"
)

// blankPageThreshold is the minimum visible text length for a page to count
// as rendered.
const blankPageThreshold = 100

// errorPatterns matches user-facing failure copy on an otherwise rendered
// page.
var errorPatterns = regexp.MustCompile(`(?i)something went wrong|error occurred|page not found|404|500 internal server error|access denied|forbidden|oops|unexpected error`)

// classifyContent grades a visited page. Checks run in order: a blank page
// outranks error copy, which outranks a bad HTTP status. Returned notes
// explain every downgrade.
func classifyContent(httpStatus int, visibleText string) (models.UIFlowStatus, []string) {
	text := strings.TrimSpace(visibleText)

	if utf8.RuneCountInString(text) < blankPageThreshold {
		return models.FlowError, []string{"Blank or nearly empty page"}
	}
	if errorPatterns.MatchString(text) {
		return models.FlowWarning, []string{"Page contains error patterns"}
	}
	if httpStatus >= 400 {
		return models.FlowError, []string{fmt.Sprintf("HTTP %d", httpStatus)}
	}
	return models.FlowOK, nil
}

// availabilityStatus grades the initial reachability check from the HTTP
// status alone.
func availabilityStatus(httpStatus int) models.UIFlowStatus {
	switch {
	case httpStatus >= 400:
		return models.FlowError
	case httpStatus >= 300:
		return models.FlowWarning
	default:
		return models.FlowOK
	}
}
