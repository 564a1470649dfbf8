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

// RuleNameBruteForce is the stable identifier for the brute force rule.
const RuleNameBruteForce = "brute_force_suspected"

// BruteForceMetadata contains details for brute force alerts.
type BruteForceMetadata struct {
	Account string `json:"account"`
	IP      string `json:"ip"`
}

// BruteForceRule flags failed authentication attempts. Every
// auth/login_failed event is treated as a potential brute force probe;
// correlation across attempts is left to the alert consumer.
type BruteForceRule struct {
	enabled bool
	mu      sync.RWMutex
}

// NewBruteForceRule creates the brute force rule, enabled by default.
func NewBruteForceRule() *BruteForceRule {
	return &BruteForceRule{enabled: true}
}

// Name returns the rule identifier.
func (r *BruteForceRule) Name() string {
	return RuleNameBruteForce
}

// Check evaluates the event. Non-auth events and auth actions other
// than login_failed produce no finding.
func (r *BruteForceRule) Check(_ context.Context, event *models.Event) (*Finding, error) {
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

	if payload.Action != "login_failed" {
		return nil, nil
	}

	metadata, err := json.Marshal(BruteForceMetadata{
		Account: payload.Account,
		IP:      payload.IP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return &Finding{
		RuleName: RuleNameBruteForce,
		Severity: models.SeverityMedium,
		Message:  fmt.Sprintf("Failed login for account %q from %s", payload.Account, payload.IP),
		Metadata: metadata,
	}, nil
}

// Enabled returns whether the rule is enabled.
func (r *BruteForceRule) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// SetEnabled toggles the rule.
func (r *BruteForceRule) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}
