// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package database

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/models"
)

// fakeRow feeds fixture values to the scan helpers.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r *fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan called with %d targets, fixture has %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch target := d.(type) {
		case *uuid.UUID:
			*target = r.values[i].(uuid.UUID)
		case *string:
			*target = r.values[i].(string)
		case *models.Severity:
			*target = r.values[i].(models.Severity)
		case *[]byte:
			*target = r.values[i].([]byte)
		case *bool:
			*target = r.values[i].(bool)
		case *time.Time:
			*target = r.values[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func TestBuildAlertListQuery(t *testing.T) {
	tests := []struct {
		name         string
		filter       AlertFilter
		wantContains []string
		wantAbsent   []string
		wantArgs     []interface{}
	}{
		{
			name:         "no filters defaults limit",
			filter:       AlertFilter{},
			wantContains: []string{`ORDER BY created_at DESC LIMIT $1`, `OFFSET $2`},
			wantAbsent:   []string{`acknowledged =`, `severity =`},
			wantArgs:     []interface{}{50, 0},
		},
		{
			name:         "acknowledged filter",
			filter:       AlertFilter{Acknowledged: boolPtr(true)},
			wantContains: []string{`acknowledged = $1`, `LIMIT $2`, `OFFSET $3`},
			wantArgs:     []interface{}{true, 50, 0},
		},
		{
			name:         "severity filter",
			filter:       AlertFilter{Severity: models.SeverityHigh},
			wantContains: []string{`severity = $1`, `LIMIT $2`, `OFFSET $3`},
			wantArgs:     []interface{}{"high", 50, 0},
		},
		{
			name: "all filters with pagination",
			filter: AlertFilter{
				Acknowledged: boolPtr(false),
				Severity:     models.SeverityMedium,
				Limit:        10,
				Offset:       20,
			},
			wantContains: []string{`acknowledged = $1`, `severity = $2`, `LIMIT $3`, `OFFSET $4`},
			wantArgs:     []interface{}{false, "medium", 10, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildAlertListQuery(tt.filter)

			for _, want := range tt.wantContains {
				if !strings.Contains(query, want) {
					t.Errorf("query missing %q:\n%s", want, query)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(query, absent) {
					t.Errorf("query unexpectedly contains %q:\n%s", absent, query)
				}
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestScanAlert(t *testing.T) {
	id := uuid.New()
	eventID := uuid.New()
	created := time.Now().UTC().Truncate(time.Second)

	row := &fakeRow{values: []interface{}{
		id,
		eventID,
		"brute_force_suspected",
		models.SeverityMedium,
		`Failed login for account "bob" from 10.0.0.1`,
		[]byte(`{"account": "bob"}`),
		false,
		created,
	}}

	var alert models.Alert
	if err := scanAlert(row, &alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if alert.ID != id || alert.EventID != eventID {
		t.Errorf("ids = (%s, %s), want (%s, %s)", alert.ID, alert.EventID, id, eventID)
	}
	if alert.RuleName != "brute_force_suspected" {
		t.Errorf("RuleName = %q", alert.RuleName)
	}
	if alert.Severity != models.SeverityMedium {
		t.Errorf("Severity = %q", alert.Severity)
	}
	if alert.Message == "" {
		t.Error("expected message to survive the scan")
	}
	if string(alert.Metadata) != `{"account": "bob"}` {
		t.Errorf("Metadata = %s", alert.Metadata)
	}
	if alert.Acknowledged {
		t.Error("freshly scanned fixture must not be acknowledged")
	}
	if !alert.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", alert.CreatedAt, created)
	}
}

func TestScanAlert_NullMetadata(t *testing.T) {
	row := &fakeRow{values: []interface{}{
		uuid.New(), uuid.New(), "geo_mismatch", models.SeverityLow, "", []byte(nil), true, time.Now(),
	}}

	var alert models.Alert
	if err := scanAlert(row, &alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.Metadata != nil {
		t.Errorf("Metadata = %v, want nil for a NULL column", alert.Metadata)
	}
}

func TestScanAlert_Error(t *testing.T) {
	row := &fakeRow{err: fmt.Errorf("driver: bad connection")}

	var alert models.Alert
	if err := scanAlert(row, &alert); err == nil {
		t.Fatal("expected the scan error to propagate")
	}
}
