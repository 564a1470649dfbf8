// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package database

import (
	"context"
	"fmt"

	"github.com/vigilsec/vigil/internal/logging"
)

// schemaStatements are applied in order at startup. Each statement is
// idempotent so repeated boots are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		source TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL REFERENCES events(id),
		rule_name TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		metadata JSONB,
		acknowledged BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_event_id ON alerts (event_id)`,
}

// EnsureSchema creates the events and alerts tables and their indexes
// if they do not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	logging.Info().Msg("Database schema ensured")
	return nil
}
