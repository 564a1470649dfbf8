// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package notify implements the alert notification channels: a generic
// JSON webhook and plaintext SMTP email. Both channels are best-effort
// with no retry; the detection engine isolates their failures.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/models"
)

// WebhookConfig configures the webhook notifier. The channel is
// enabled when URL is non-empty.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	Alert *models.Alert `json:"alert"`
	Event *models.Event `json:"event"`
}

// WebhookNotifier posts alerts as JSON to a configured endpoint.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	headers := make(map[string]string)
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		url:     config.URL,
		headers: headers,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the channel identifier.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// Send posts the alert and its triggering event to the webhook
// endpoint. Any HTTP status >= 400 is an error.
func (n *WebhookNotifier) Send(ctx context.Context, alert *models.Alert, event *models.Event) error {
	if n.url == "" {
		return nil
	}

	body, err := json.Marshal(WebhookPayload{Alert: alert, Event: event})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		_ = resp.Body.Close()                 //nolint:errcheck // best effort cleanup
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
