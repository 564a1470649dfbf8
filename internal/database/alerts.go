// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/models"
)

const alertSelectColumns = `id, event_id, rule_name, severity, message, metadata, acknowledged, created_at`

// AlertFilter narrows ListAlerts results. Zero values mean no filtering;
// Limit defaults to 50 when unset.
type AlertFilter struct {
	Acknowledged *bool
	Severity     models.Severity
	Limit        int
	Offset       int
}

// InsertAlert stores a detection finding. Insertion is intentionally
// non-idempotent; every rule firing creates a new row even when the
// same event fires the same rule across consecutive poll cycles.
func (s *Store) InsertAlert(ctx context.Context, alert models.Alert) (models.Alert, error) {
	var metadata interface{}
	if len(alert.Metadata) > 0 {
		metadata = []byte(alert.Metadata)
	}

	query := `INSERT INTO alerts (event_id, rule_name, severity, message, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + alertSelectColumns

	var stored models.Alert
	row := s.db.QueryRowContext(ctx, query, alert.EventID, alert.RuleName, string(alert.Severity), alert.Message, metadata)
	if err := scanAlert(row, &stored); err != nil {
		return models.Alert{}, fmt.Errorf("failed to insert alert: %w", err)
	}
	return stored, nil
}

// ListAlerts returns alerts newest first, applying the filter.
func (s *Store) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.Alert, error) {
	query, args := buildAlertListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// buildAlertListQuery assembles the filtered alert query. Placeholders
// are numbered in the order filters are applied so args line up.
func buildAlertListQuery(filter AlertFilter) (string, []interface{}) {
	query := `SELECT ` + alertSelectColumns + ` FROM alerts WHERE 1=1`
	args := []interface{}{}

	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		query += ` AND acknowledged = $` + strconv.Itoa(len(args))
	}
	if filter.Severity != "" {
		args = append(args, string(filter.Severity))
		query += ` AND severity = $` + strconv.Itoa(len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	return query, args
}

// AcknowledgeAlert marks an alert as acknowledged and returns the
// updated row. Returns ErrNotFound for an unknown id.
func (s *Store) AcknowledgeAlert(ctx context.Context, id uuid.UUID) (models.Alert, error) {
	query := `UPDATE alerts SET acknowledged = true
		WHERE id = $1
		RETURNING ` + alertSelectColumns

	var alert models.Alert
	row := s.db.QueryRowContext(ctx, query, id)
	if err := scanAlert(row, &alert); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Alert{}, ErrNotFound
		}
		return models.Alert{}, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return alert, nil
}

// scanAlert scans a single alert row, handling the nullable metadata column.
func scanAlert(scanner interface {
	Scan(dest ...interface{}) error
}, alert *models.Alert) error {
	var metadata []byte
	if err := scanner.Scan(
		&alert.ID,
		&alert.EventID,
		&alert.RuleName,
		&alert.Severity,
		&alert.Message,
		&metadata,
		&alert.Acknowledged,
		&alert.CreatedAt,
	); err != nil {
		return err
	}
	if len(metadata) > 0 {
		alert.Metadata = json.RawMessage(metadata)
	}
	return nil
}

// scanAlerts scans multiple alert rows.
func scanAlerts(rows *sql.Rows) ([]models.Alert, error) {
	var alerts []models.Alert
	for rows.Next() {
		var alert models.Alert
		if err := scanAlert(rows, &alert); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
