// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vigil/config.yaml",
	"/etc/vigil/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSecondsFields(k); err != nil {
		return nil, fmt.Errorf("failed to process interval fields: %w", err)
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

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
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

// envTransformFunc maps environment variable names to koanf config paths.
// Only explicitly mapped variables are loaded; everything else in the
// environment is ignored.
//
// Examples:
//   - DATABASE_URL -> database.dsn
//   - POLL_INTERVAL_SECONDS -> poller.interval_seconds
//   - ALERT_WEBHOOK_URL -> webhook.url
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"database_url":   "database.dsn",
		"retention_days": "database.retention_days",

		"poll_interval_seconds": "poller.interval_seconds",
		"poll_fetch_limit":      "poller.fetch_limit",

		"alert_webhook_url": "webhook.url",

		"smtp_host":        "smtp.host",
		"smtp_port":        "smtp.port",
		"smtp_username":    "smtp.username",
		"smtp_password":    "smtp.password",
		"alert_email_from": "smtp.from",
		"alert_email_to":   "smtp.to",

		"server_host":  "server.host",
		"server_port":  "server.port",
		"api_key":      "server.api_key",
		"cors_origins": "server.cors_origins",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}

// processSecondsFields converts integer-seconds environment values into
// the duration fields they drive. POLL_INTERVAL_SECONDS=10 becomes a
// 10s poller interval.
func processSecondsFields(k *koanf.Koanf) error {
	raw := k.Get("poller.interval_seconds")
	if raw == nil {
		return nil
	}

	secs, err := strconv.Atoi(fmt.Sprintf("%v", raw))
	if err != nil {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be an integer: %w", err)
	}

	if err := k.Set("poller.interval", fmt.Sprintf("%ds", secs)); err != nil {
		return err
	}
	k.Delete("poller.interval_seconds")
	return nil
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when sourced from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated string values into slices
// for the paths listed in sliceConfigPaths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}

		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}

		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
