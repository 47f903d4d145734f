// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

// Package config loads and validates service configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an optional
// YAML file, then environment variables. Environment variables win.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the root configuration for the gatecheck service.
type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Session  SessionConfig  `koanf:"session"`
	Browser  BrowserConfig  `koanf:"browser"`
	Audit    AuditConfig    `koanf:"audit"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name string `koanf:"name"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig controls login session lifecycle.
type SessionConfig struct {
	// TTLMinutes is how long an unexpired session stays usable.
	TTLMinutes int `koanf:"ttl_minutes"`

	// MaxConcurrent caps simultaneously active sessions.
	MaxConcurrent int `koanf:"max_concurrent"`
}

// BrowserConfig controls the embedded Chrome instance.
type BrowserConfig struct {
	// Headless has three states via HeadlessSet: when unset the platform
	// default applies (headless on Linux, headful elsewhere).
	Headless    bool `koanf:"headless"`
	HeadlessSet bool `koanf:"headless_set"`

	TimeoutMS      int    `koanf:"timeout_ms"`
	PageLoadWaitMS int    `koanf:"page_load_wait_ms"`
	ViewportWidth  int    `koanf:"viewport_width"`
	ViewportHeight int    `koanf:"viewport_height"`
	UserAgent      string `koanf:"user_agent"`
}

// AuditConfig controls crawl and audit limits.
type AuditConfig struct {
	MaxPagesDefault    int `koanf:"max_pages_default"`
	MaxDepthDefault    int `koanf:"max_depth_default"`
	MaxAuditSeconds    int `koanf:"max_audit_seconds"`
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// SecurityConfig holds request admission settings.
type SecurityConfig struct {
	// AllowPrivateIPs permits audits against RFC1918/loopback targets.
	// Off by default to keep the service from being an SSRF proxy.
	AllowPrivateIPs bool     `koanf:"allow_private_ips"`
	CORSOrigins     []string `koanf:"cors_origins"`
}

// StorageConfig locates on-disk working state.
type StorageConfig struct {
	// DataDir holds sessions/<id>/ and audits/<id>/ subtrees.
	DataDir string `koanf:"data_dir"`

	// ArtifactRetentionHours is how long finished audit artifacts
	// (screenshots, preview frames) stay on disk before the janitor
	// removes them.
	ArtifactRetentionHours int `koanf:"artifact_retention_hours"`
}

// LoggingConfig mirrors the logging package configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DefaultUserAgent is presented to audited sites unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultConfig returns a Config struct with all default values.
// These are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "gatecheck",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			TTLMinutes:    30,
			MaxConcurrent: 5,
		},
		Browser: BrowserConfig{
			Headless:       runtime.GOOS == "linux",
			HeadlessSet:    false,
			TimeoutMS:      60000,
			PageLoadWaitMS: 2000,
			ViewportWidth:  1280,
			ViewportHeight: 720,
			UserAgent:      DefaultUserAgent,
		},
		Audit: AuditConfig{
			MaxPagesDefault:    20,
			MaxDepthDefault:    2,
			MaxAuditSeconds:    300,
			RateLimitPerMinute: 30,
		},
		Security: SecurityConfig{
			AllowPrivateIPs: false,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			DataDir:                "/data/gatecheck",
			ArtifactRetentionHours: 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// HeadlessEffective resolves the three-state headless setting.
func (c *BrowserConfig) HeadlessEffective() bool {
	if c.HeadlessSet {
		return c.Headless
	}
	return runtime.GOOS == "linux"
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Session.TTLMinutes < 1 {
		return fmt.Errorf("session.ttl_minutes must be positive, got %d", c.Session.TTLMinutes)
	}
	if c.Session.MaxConcurrent < 1 {
		return fmt.Errorf("session.max_concurrent must be positive, got %d", c.Session.MaxConcurrent)
	}
	if c.Browser.ViewportWidth < 320 || c.Browser.ViewportHeight < 240 {
		return fmt.Errorf("browser viewport too small: %dx%d",
			c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.TimeoutMS < 1000 {
		return fmt.Errorf("browser.timeout_ms must be at least 1000, got %d", c.Browser.TimeoutMS)
	}
	if c.Audit.MaxPagesDefault < 1 || c.Audit.MaxPagesDefault > 100 {
		return fmt.Errorf("audit.max_pages_default must be 1-100, got %d", c.Audit.MaxPagesDefault)
	}
	if c.Audit.MaxDepthDefault < 1 || c.Audit.MaxDepthDefault > 5 {
		return fmt.Errorf("audit.max_depth_default must be 1-5, got %d", c.Audit.MaxDepthDefault)
	}
	if c.Audit.MaxAuditSeconds < 10 {
		return fmt.Errorf("audit.max_audit_seconds must be at least 10, got %d", c.Audit.MaxAuditSeconds)
	}
	if c.Audit.RateLimitPerMinute < 1 {
		return fmt.Errorf("audit.rate_limit_per_minute must be positive, got %d", c.Audit.RateLimitPerMinute)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if c.Storage.ArtifactRetentionHours < 1 {
		return fmt.Errorf("storage.artifact_retention_hours must be positive, got %d", c.Storage.ArtifactRetentionHours)
	}
	return nil
}

// BrowserTimeout returns the navigation timeout as a duration.
func (c *BrowserConfig) BrowserTimeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// PageLoadWait returns the post-navigation settle delay as a duration.
func (c *BrowserConfig) PageLoadWait() time.Duration {
	return time.Duration(c.PageLoadWaitMS) * time.Millisecond
}

// MaxAuditDuration returns the audit wall-clock cap as a duration.
func (c *AuditConfig) MaxAuditDuration() time.Duration {
	return time.Duration(c.MaxAuditSeconds) * time.Second
}

// SessionTTL returns the session lifetime as a duration.
func (c *SessionConfig) SessionTTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ArtifactRetention returns the audit artifact lifetime as a duration.
func (c *StorageConfig) ArtifactRetention() time.Duration {
	return time.Duration(c.ArtifactRetentionHours) * time.Hour
}
