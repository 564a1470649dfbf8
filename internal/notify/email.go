// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/models"
)

// EmailConfig configures the email notifier. The channel is enabled
// when Host, From, and To are all non-empty.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// EmailNotifier delivers alerts as plaintext email over SMTP.
type EmailNotifier struct {
	config      EmailConfig
	dialTimeout time.Duration
}

// NewEmailNotifier creates an email notifier.
func NewEmailNotifier(config EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		config:      config,
		dialTimeout: 30 * time.Second,
	}
}

// Name returns the channel identifier.
func (n *EmailNotifier) Name() string {
	return "email"
}

// Enabled reports whether SMTP delivery is configured.
func (n *EmailNotifier) Enabled() bool {
	return n.config.Host != "" && n.config.From != "" && n.config.To != ""
}

// Send delivers the alert by email. The subject carries the rule name
// and severity; the body is the alert and triggering event as indented
// JSON, the same envelope the webhook channel posts.
func (n *EmailNotifier) Send(ctx context.Context, alert *models.Alert, event *models.Event) error {
	if !n.Enabled() {
		return nil
	}

	msg, err := n.buildMessage(alert, event)
	if err != nil {
		return err
	}
	return n.sendSMTP(ctx, msg)
}

// buildMessage constructs the full message with headers. SMTP requires
// CRLF line endings between headers.
func (n *EmailNotifier) buildMessage(alert *models.Alert, event *models.Event) (string, error) {
	body, err := json.MarshalIndent(WebhookPayload{Alert: alert, Event: event}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal alert: %w", err)
	}

	subject := fmt.Sprintf("[Alert] %s - %s", alert.RuleName, alert.Severity)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", n.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", n.config.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body)
	msg.WriteString("\r\n")

	return msg.String(), nil
}

// sendSMTP delivers the message over a fresh SMTP connection,
// upgrading to TLS when the server offers STARTTLS.
func (n *EmailNotifier) sendSMTP(ctx context.Context, msg string) error {
	addr := fmt.Sprintf("%s:%d", n.config.Host, n.config.Port)

	dialer := &net.Dialer{Timeout: n.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: n.config.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if n.config.Username != "" && n.config.Password != "" {
		auth := smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(n.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(n.config.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// Quit failures after a successful DATA are ignored; the message
	// was already accepted.
	_ = client.Quit() //nolint:errcheck

	return nil
}
