// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validatePoller(); err != nil {
		return err
	}

	if err := c.validateSMTP(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.Database.RetentionDays)
	}
	return nil
}

func (c *Config) validatePoller() error {
	if c.Poller.Interval < time.Second {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be at least 1, got %s", c.Poller.Interval)
	}
	if c.Poller.FetchLimit < 1 {
		return fmt.Errorf("poller fetch limit must be at least 1, got %d", c.Poller.FetchLimit)
	}
	return nil
}

// validateSMTP checks email settings only when the channel is enabled.
// Email delivery is optional; a missing host simply disables it.
func (c *Config) validateSMTP() error {
	if !c.SMTP.Enabled() {
		return nil
	}

	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", c.SMTP.Port)
	}
	if !strings.Contains(c.SMTP.From, "@") {
		return fmt.Errorf("ALERT_EMAIL_FROM must be an email address, got %q", c.SMTP.From)
	}
	if !strings.Contains(c.SMTP.To, "@") {
		return fmt.Errorf("ALERT_EMAIL_TO must be an email address, got %q", c.SMTP.To)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if !c.Server.RateLimitDisabled && c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("rate limit requests must be at least 1, got %d", c.Server.RateLimitReqs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// Enabled reports whether the webhook alert channel is configured.
func (w *WebhookConfig) Enabled() bool {
	return w.URL != ""
}

// Enabled reports whether the email alert channel is configured.
func (s *SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != "" && s.To != ""
}
