// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

// Package api provides the HTTP surface: event ingestion, event and
// alert listing, alert acknowledgement, health, and metrics.
//
// errors.go - Common API error definitions
package api

import "errors"

// Common API errors
var (
	// ErrInvalidAPIKey indicates a missing or mismatched X-API-Key header.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrInvalidAlertID indicates a malformed alert id path parameter.
	ErrInvalidAlertID = errors.New("invalid alert id")
)
