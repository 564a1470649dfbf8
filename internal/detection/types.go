// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package detection implements the rule engine: pure per-event rules
// evaluated over recent telemetry, with findings persisted as alerts
// and delivered best-effort to notification channels.
package detection

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/database"
	"github.com/vigilsec/vigil/internal/models"
)

// Finding is the result of a rule matching an event. The engine turns
// findings into persisted alerts.
type Finding struct {
	RuleName string
	Severity models.Severity
	Message  string
	Metadata json.RawMessage
}

// Rule is a pure per-event detection check. Check never sees other
// events; a nil finding with nil error means no match. Rules must
// tolerate arbitrary payload shapes.
type Rule interface {
	// Name returns the stable rule identifier stored on alerts.
	Name() string

	// Check evaluates one event. Events the rule does not target
	// vacuously produce (nil, nil).
	Check(ctx context.Context, event *models.Event) (*Finding, error)

	// Enabled returns whether the rule participates in evaluation.
	Enabled() bool

	// SetEnabled toggles the rule.
	SetEnabled(enabled bool)
}

// AlertStore persists detection findings.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert models.Alert) (models.Alert, error)
}

// EventSource supplies the events a poll cycle evaluates.
type EventSource interface {
	RecentEvents(ctx context.Context, limit int) ([]models.Event, error)
}

// Notifier delivers an alert over one channel. Delivery is best-effort;
// the engine logs and counts failures but never retries.
type Notifier interface {
	// Send delivers the alert. The triggering event is included for
	// channels that carry event context.
	Send(ctx context.Context, alert *models.Alert, event *models.Event) error

	// Name identifies the channel in logs and metrics.
	Name() string

	// Enabled returns whether the channel is configured for delivery.
	Enabled() bool
}

// Compile-time check that the Postgres store satisfies the engine's
// storage interfaces.
var (
	_ AlertStore  = (*database.Store)(nil)
	_ EventSource = (*database.Store)(nil)
)

// newAlert builds the alert row for a finding against an event.
func newAlert(eventID uuid.UUID, finding *Finding) models.Alert {
	return models.Alert{
		EventID:  eventID,
		RuleName: finding.RuleName,
		Severity: finding.Severity,
		Message:  finding.Message,
		Metadata: finding.Metadata,
	}
}
