// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Target URL admission errors.
var (
	ErrURLScheme     = fmt.Errorf("url scheme must be http or https")
	ErrURLHost       = fmt.Errorf("url must include a hostname")
	ErrURLTraversal  = fmt.Errorf("url path must not contain '..'")
	ErrURLPrivateIP  = fmt.Errorf("url resolves to a private or loopback address")
	ErrURLUnparsable = fmt.Errorf("url could not be parsed")
)

// ValidateTargetURL checks that a caller-supplied URL is safe to hand to the
// browser engine. Private and loopback targets are rejected unless
// allowPrivate is set, which keeps the service from doubling as an SSRF
// proxy.
func ValidateTargetURL(raw string, allowPrivate bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrURLUnparsable, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w, got %q", ErrURLScheme, u.Scheme)
	}
	if u.Hostname() == "" {
		return ErrURLHost
	}
	if strings.Contains(u.Path, "..") {
		return ErrURLTraversal
	}
	if !allowPrivate && isPrivateHost(u.Hostname()) {
		return fmt.Errorf("%w: %s", ErrURLPrivateIP, u.Hostname())
	}

	return nil
}

// isPrivateHost reports whether a hostname is a literal private, loopback,
// link-local, or unspecified IP, or the localhost name. Hostnames that need
// DNS resolution are not resolved here; the check is on the literal only.
func isPrivateHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// NormalizeURL reduces a URL to scheme://host/path, dropping query strings
// and fragments. Crawl deduplication keys on this form.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	normalized := u.Scheme + "://" + u.Host + u.Path
	return normalized
}

// SameHost reports whether two URLs share a hostname. Relative URLs (empty
// host) count as same-host.
func SameHost(base, candidate string) bool {
	bu, err := url.Parse(base)
	if err != nil {
		return false
	}
	cu, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if cu.Host == "" {
		return true
	}
	return strings.EqualFold(bu.Hostname(), cu.Hostname())
}
