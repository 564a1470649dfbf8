// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package detection

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/models"
)

// RuleNameGeoMismatch is the stable identifier for the geo mismatch rule.
const RuleNameGeoMismatch = "geo_mismatch"

// GeoMismatchMetadata contains details for geo mismatch alerts.
type GeoMismatchMetadata struct {
	Account        string `json:"account"`
	LoginCountry   string `json:"login_country"`
	AccountCountry string `json:"account_country"`
}

// GeoMismatchRule flags successful logins whose resolved geo country
// differs from the country registered on the account. A missing geo
// country produces no finding; a missing account country counts as a
// mismatch, since an account with no registered country cannot match
// any login location.
type GeoMismatchRule struct {
	enabled bool
	mu      sync.RWMutex
}

// NewGeoMismatchRule creates the geo mismatch rule, enabled by default.
func NewGeoMismatchRule() *GeoMismatchRule {
	return &GeoMismatchRule{enabled: true}
}

// Name returns the rule identifier.
func (r *GeoMismatchRule) Name() string {
	return RuleNameGeoMismatch
}

// Check evaluates the event. Only successful logins with a resolved
// geo country can fire.
func (r *GeoMismatchRule) Check(_ context.Context, event *models.Event) (*Finding, error) {
	if !r.Enabled() {
		return nil, nil
	}

	if event.EventType != "auth" {
		return nil, nil
	}

	var payload models.AuthPayload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload: %w", err)
		}
	}

	if payload.Action != "login_success" {
		return nil, nil
	}
	if payload.Geo.Country == "" {
		return nil, nil
	}
	if payload.Geo.Country == payload.AccountCountry {
		return nil, nil
	}

	metadata, err := json.Marshal(GeoMismatchMetadata{
		Account:        payload.Account,
		LoginCountry:   payload.Geo.Country,
		AccountCountry: payload.AccountCountry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return &Finding{
		RuleName: RuleNameGeoMismatch,
		Severity: models.SeverityLow,
		Message:  fmt.Sprintf("Login for account %q from %s, account country is %s", payload.Account, payload.Geo.Country, payload.AccountCountry),
		Metadata: metadata,
	}, nil
}

// Enabled returns whether the rule is enabled.
func (r *GeoMismatchRule) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// SetEnabled toggles the rule.
func (r *GeoMismatchRule) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}
