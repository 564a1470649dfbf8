// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package detection

import (
	"context"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/models"
)

func TestGeoMismatchRule_Check(t *testing.T) {
	rule := NewGeoMismatchRule()

	tests := []struct {
		name          string
		event         *models.Event
		expectFinding bool
	}{
		{
			name:          "country mismatch fires",
			event:         authEvent(`{"action": "login_success", "account": "alice", "account_country": "DE", "geo": {"country": "BR"}}`),
			expectFinding: true,
		},
		{
			name:          "matching countries do not fire",
			event:         authEvent(`{"action": "login_success", "account": "alice", "account_country": "DE", "geo": {"country": "DE"}}`),
			expectFinding: false,
		},
		{
			name:          "missing geo country does not fire",
			event:         authEvent(`{"action": "login_success", "account": "alice", "account_country": "DE"}`),
			expectFinding: false,
		},
		{
			name:          "missing account country fires",
			event:         authEvent(`{"action": "login_success", "account": "alice", "geo": {"country": "BR"}}`),
			expectFinding: true,
		},
		{
			name:          "login failure does not fire",
			event:         authEvent(`{"action": "login_failed", "account_country": "DE", "geo": {"country": "BR"}}`),
			expectFinding: false,
		},
		{
			name:          "empty geo country does not fire",
			event:         authEvent(`{"action": "login_success", "account_country": "DE", "geo": {"country": ""}}`),
			expectFinding: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, err := rule.Check(context.Background(), tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expectFinding && finding == nil {
				t.Fatal("expected a finding")
			}
			if !tt.expectFinding && finding != nil {
				t.Fatalf("expected no finding, got %+v", finding)
			}
		})
	}
}

func TestGeoMismatchRule_FindingShape(t *testing.T) {
	rule := NewGeoMismatchRule()

	finding, err := rule.Check(context.Background(),
		authEvent(`{"action": "login_success", "account": "carol", "account_country": "US", "geo": {"country": "RU"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if finding == nil {
		t.Fatal("expected a finding")
	}

	if finding.RuleName != RuleNameGeoMismatch {
		t.Errorf("RuleName = %q, want %q", finding.RuleName, RuleNameGeoMismatch)
	}
	if finding.Severity != models.SeverityLow {
		t.Errorf("Severity = %q, want %q", finding.Severity, models.SeverityLow)
	}

	var metadata GeoMismatchMetadata
	if err := json.Unmarshal(finding.Metadata, &metadata); err != nil {
		t.Fatalf("failed to unmarshal metadata: %v", err)
	}
	if metadata.LoginCountry != "RU" {
		t.Errorf("LoginCountry = %q, want %q", metadata.LoginCountry, "RU")
	}
	if metadata.AccountCountry != "US" {
		t.Errorf("AccountCountry = %q, want %q", metadata.AccountCountry, "US")
	}
	if metadata.Account != "carol" {
		t.Errorf("Account = %q, want %q", metadata.Account, "carol")
	}
}
