// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package config loads and validates Vigil's runtime configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// config file, then environment variables. Environment variables take
// the highest precedence and keep the deployment's existing names
// (DATABASE_URL, POLL_INTERVAL_SECONDS, SMTP_HOST, ...).
package config

import "time"

// Config is the root configuration for the Vigil service.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Poller   PollerConfig   `koanf:"poller"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`

	// RetentionDays is accepted for forward compatibility with a
	// cleanup job; nothing consumes it yet.
	RetentionDays int `koanf:"retention_days"`
}

// PollerConfig holds the detection loop settings.
type PollerConfig struct {
	// Interval between poll cycles.
	Interval time.Duration `koanf:"interval"`

	// FetchLimit is the number of most recent events evaluated per cycle.
	FetchLimit int `koanf:"fetch_limit"`
}

// WebhookConfig holds alert webhook delivery settings.
// The channel is enabled when URL is non-empty.
type WebhookConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// SMTPConfig holds alert email delivery settings.
// The channel is enabled when Host, From, and To are all non-empty.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	To       string `koanf:"to"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// APIKey protects the /api routes via the X-API-Key header.
	// Empty disables authentication.
	APIKey string `koanf:"api_key"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values applied.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:           "",
			RetentionDays: 30,
		},
		Poller: PollerConfig{
			Interval:   5 * time.Second,
			FetchLimit: 50,
		},
		Webhook: WebhookConfig{
			URL:     "",
			Timeout: 10 * time.Second,
		},
		SMTP: SMTPConfig{
			Host: "",
			Port: 587,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			APIKey:          "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
