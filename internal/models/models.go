// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package models defines the core domain types shared across Vigil:
// telemetry events, alerts raised by detection rules, and severities.
package models

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Severity indicates how serious an alert is. It is an open string
// enumeration; rules may introduce values beyond the conventional
// levels below and nothing validates against a closed set.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is a single piece of security telemetry.
// Payload is schemaless JSON; rules pull the fields they care about
// out of it and tolerate anything missing.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Source    string          `json:"source"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Alert is a persisted detection finding: one row per rule firing.
type Alert struct {
	ID           uuid.UUID       `json:"id"`
	EventID      uuid.UUID       `json:"event_id"`
	RuleName     string          `json:"rule_name"`
	Severity     Severity        `json:"severity"`
	Message      string          `json:"message"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Acknowledged bool            `json:"acknowledged"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AuthPayload is the shape rules expect on auth telemetry payloads.
// All fields are optional; absent fields decode to zero values.
type AuthPayload struct {
	Action         string     `json:"action"`
	Account        string     `json:"account"`
	IP             string     `json:"ip"`
	AccountCountry string     `json:"account_country"`
	Geo            GeoPayload `json:"geo"`
}

// GeoPayload carries resolved geo attributes attached by the telemetry
// producer.
type GeoPayload struct {
	Country string `json:"country"`
	City    string `json:"city"`
}
