// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/models"
)

const eventSelectColumns = `id, source, event_type, payload, created_at`

// InsertEvent stores a telemetry event and returns the stored row with
// its generated id and timestamp.
func (s *Store) InsertEvent(ctx context.Context, source, eventType string, payload json.RawMessage) (models.Event, error) {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	query := `INSERT INTO events (source, event_type, payload)
		VALUES ($1, $2, $3)
		RETURNING ` + eventSelectColumns

	var event models.Event
	row := s.db.QueryRowContext(ctx, query, source, eventType, []byte(payload))
	if err := scanEvent(row, &event); err != nil {
		return models.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// RecentEvents returns the most recent events, newest first. This is
// the detection poller's working set.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	query := `SELECT ` + eventSelectColumns + `
		FROM events
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEvents returns events newest first with limit/offset pagination.
func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]models.Event, error) {
	query := `SELECT ` + eventSelectColumns + `
		FROM events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvent scans a single event row.
func scanEvent(scanner interface {
	Scan(dest ...interface{}) error
}, event *models.Event) error {
	var payload []byte
	if err := scanner.Scan(
		&event.ID,
		&event.Source,
		&event.EventType,
		&payload,
		&event.CreatedAt,
	); err != nil {
		return err
	}
	event.Payload = json.RawMessage(payload)
	return nil
}

// scanEvents scans multiple event rows.
func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
