// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package database

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/models"
)

func TestScanEvent(t *testing.T) {
	id := uuid.New()
	created := time.Now().UTC().Truncate(time.Second)

	row := &fakeRow{values: []interface{}{
		id,
		"auth-service",
		"auth",
		[]byte(`{"action": "login_failed", "account": "alice"}`),
		created,
	}}

	var event models.Event
	if err := scanEvent(row, &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.ID != id {
		t.Errorf("ID = %s, want %s", event.ID, id)
	}
	if event.Source != "auth-service" || event.EventType != "auth" {
		t.Errorf("source/type = (%q, %q)", event.Source, event.EventType)
	}
	if string(event.Payload) != `{"action": "login_failed", "account": "alice"}` {
		t.Errorf("Payload = %s", event.Payload)
	}
	if !event.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", event.CreatedAt, created)
	}
}
