// Vigil - Security Telemetry Detection and Alerting
// Copyright 2026 Vigil Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vigilsec/vigil

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/vigilsec/vigil/internal/logging"
)

// apiError is the error body shape for all error responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope wraps successful response payloads.
type envelope struct {
	Data interface{} `json:"data"`
}

// errorEnvelope wraps error responses.
type errorEnvelope struct {
	Error apiError `json:"error"`
}

// writeJSON encodes data inside the response envelope.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError sends an error response and logs the underlying error.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("API error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(errorEnvelope{
		Error: apiError{Code: code, Message: message},
	}); encErr != nil {
		logging.Error().Err(encErr).Msg("Failed to encode error response")
	}
}

// getIntParam reads an integer query parameter, falling back to def
// when absent, malformed, or negative.
func getIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
