// Gatecheck - Authenticated Production Readiness Auditing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gatecheck

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gatecheck/config.yaml",
	"/etc/gatecheck/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// HEADLESS is three-state: the platform default applies unless the
	// variable is present at all. YAML users pin the mode by setting
	// browser.headless_set alongside browser.headless.
	if _, ok := os.LookupEnv("HEADLESS"); ok {
		if err := k.Set("browser.headless_set", true); err != nil {
			return nil, fmt.Errorf("failed to mark headless override: %w", err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envMappings maps flat deployment environment variables to nested config
// paths. Variables not listed here are ignored rather than guessed at.
var envMappings = map[string]string{
	"app_name": "app.name",

	"host":           "server.host",
	"port":           "server.port",
	"server_timeout": "server.timeout",

	"session_ttl_minutes":     "session.ttl_minutes",
	"max_concurrent_sessions": "session.max_concurrent",

	"headless":           "browser.headless",
	"browser_timeout_ms": "browser.timeout_ms",
	"page_load_wait_ms":  "browser.page_load_wait_ms",
	"viewport_width":     "browser.viewport_width",
	"viewport_height":    "browser.viewport_height",
	"user_agent":         "browser.user_agent",

	"max_pages_default":     "audit.max_pages_default",
	"max_depth":             "audit.max_depth_default",
	"max_audit_seconds":     "audit.max_audit_seconds",
	"rate_limit_per_minute": "audit.rate_limit_per_minute",

	"allow_private_ips": "security.allow_private_ips",
	"cors_origins":      "security.cors_origins",

	"data_dir":                 "storage.data_dir",
	"artifact_retention_hours": "storage.artifact_retention_hours",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf paths.
//
// Examples:
//   - SESSION_TTL_MINUTES -> session.ttl_minutes
//   - ALLOW_PRIVATE_IPS   -> security.allow_private_ips
//   - GATECHECK_BROWSER_USER_AGENT -> browser.user_agent
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// GATECHECK_-prefixed variables address config paths directly:
	// GATECHECK_AUDIT_MAX_PAGES_DEFAULT -> audit.max_pages_default
	if rest, ok := strings.CutPrefix(key, "gatecheck_"); ok {
		for _, section := range []string{"app", "server", "session", "browser", "audit", "security", "storage", "logging"} {
			if sub, ok := strings.CutPrefix(rest, section+"_"); ok {
				return section + "." + sub
			}
		}
	}

	// Unknown variables map to nothing rather than polluting the tree.
	return ""
}
