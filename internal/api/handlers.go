// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/vigilsec/vigil/internal/database"
	"github.com/vigilsec/vigil/internal/metrics"
	"github.com/vigilsec/vigil/internal/models"
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	InsertEvent(ctx context.Context, source, eventType string, payload json.RawMessage) (models.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]models.Event, error)
	ListAlerts(ctx context.Context, filter database.AlertFilter) ([]models.Alert, error)
	AcknowledgeAlert(ctx context.Context, id uuid.UUID) (models.Alert, error)
	Ping(ctx context.Context) error
}

// Handlers provides the HTTP handlers for the Vigil API.
type Handlers struct {
	store    Store
	validate *validator.Validate
}

// NewHandlers creates the API handlers over the given store.
func NewHandlers(store Store) *Handlers {
	return &Handlers{
		store:    store,
		validate: validator.New(),
	}
}

// IngestRequest is the body for POST /api/v1/ingest.
type IngestRequest struct {
	Source    string          `json:"source" validate:"required,max=128"`
	EventType string          `json:"event_type" validate:"required,max=128"`
	Payload   json.RawMessage `json:"payload"`
}

// IngestEvent handles POST /api/v1/ingest.
func (h *Handlers) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON", err)
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "source and event_type are required", err)
		return
	}

	event, err := h.store.InsertEvent(r.Context(), req.Source, req.EventType, req.Payload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to store event", err)
		return
	}

	metrics.RecordEventIngested(event.Source, event.EventType)
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /api/v1/events.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	offset := getIntParam(r, "offset", 0)

	events, err := h.store.ListEvents(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list events", err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// ListAlerts handles GET /api/v1/alerts.
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := database.AlertFilter{
		Limit:  getIntParam(r, "limit", 50),
		Offset: getIntParam(r, "offset", 0),
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}

	if v := r.URL.Query().Get("acknowledged"); v != "" {
		acked := v == "true"
		filter.Acknowledged = &acked
	}
	// Severity is an open enumeration; custom rule severities filter
	// like any other value.
	if v := r.URL.Query().Get("severity"); v != "" {
		filter.Severity = models.Severity(v)
	}

	alerts, err := h.store.ListAlerts(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to list alerts", err)
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	writeJSON(w, http.StatusOK, alerts)
}

// AcknowledgeAlert handles POST /api/v1/alerts/{id}/ack.
func (h *Handlers) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "alert id must be a UUID", ErrInvalidAlertID)
		return
	}

	alert, err := h.store.AcknowledgeAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "alert not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to acknowledge alert", err)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// Health handles GET /health. Reports database connectivity.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]string{"status": status})
}
